package pyflow

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// maxDepth bounds recursion over the syntax tree.
const maxDepth = 1000

// legacyStatements are Python 2 statements the grammar still accepts.
var legacyStatements = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

// syntaxError describes the first construct under root that Python rejects,
// or returns "" when there is none. Besides ERROR and MISSING nodes that
// covers Python 2 statements and statements off their block's indentation.
func syntaxError(root *sitter.Node) string {
	if root.HasError() {
		n := firstError(root, 0)
		if n == nil {
			return "invalid syntax"
		}
		pos := n.StartPoint()
		if n.IsMissing() {
			return fmt.Sprintf("missing %q at line %d, column %d", n.Type(), pos.Row+1, pos.Column+1)
		}
		return fmt.Sprintf("invalid syntax at line %d, column %d", pos.Row+1, pos.Column+1)
	}
	n, reason := firstRejected(root, 0)
	if n == nil {
		return ""
	}
	pos := n.StartPoint()
	return fmt.Sprintf("%s at line %d, column %d", reason, pos.Row+1, pos.Column+1)
}

func firstError(n *sitter.Node, depth int) *sitter.Node {
	if n == nil || depth > maxDepth {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i), depth+1); found != nil {
			return found
		}
	}
	return nil
}

func firstRejected(n *sitter.Node, depth int) (*sitter.Node, string) {
	if n == nil || depth > maxDepth {
		return nil, ""
	}
	if legacyStatements[n.Type()] {
		return n, "invalid syntax"
	}
	if n.Type() == "module" || n.Type() == "block" {
		if bad := misindented(n); bad != nil {
			return bad, "unexpected indent"
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found, reason := firstRejected(n.NamedChild(i), depth+1); found != nil {
			return found, reason
		}
	}
	return nil, ""
}

// misindented returns the first statement of a module or block that does not
// start at the column shared by its siblings. Module statements start at
// column 0. Statements sharing a line with the previous one are skipped.
func misindented(body *sitter.Node) *sitter.Node {
	want := -1
	if body.Type() == "module" {
		want = 0
	}
	prevEnd := -1
	for _, stmt := range namedChildren(body) {
		start := stmt.StartPoint()
		sameLine := int(start.Row) == prevEnd
		prevEnd = int(stmt.EndPoint().Row)
		switch {
		case sameLine:
		case want < 0:
			want = int(start.Column)
		case int(start.Column) != want:
			return stmt
		}
	}
	return nil
}

// walk visits n and its named descendants in source order.
func walk(n *sitter.Node, visit func(*sitter.Node), depth int) {
	if n == nil || depth > maxDepth {
		return
	}
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit, depth+1)
	}
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// unwrap strips redundant parentheses.
func unwrap(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		inner := namedChildren(n)
		if len(inner) != 1 {
			return n
		}
		n = inner[0]
	}
	return n
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	end := n.EndByte()
	if end > uint32(len(src)) {
		end = uint32(len(src))
	}
	return string(src[n.StartByte():end])
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row + 1)
}

// calleeName returns the called name of a call node: `Filter(...)` yields
// "Filter" and `tasks.Filter(...)` yields "Filter".
func calleeName(call *sitter.Node, src []byte) string {
	fn := unwrap(call.ChildByFieldName("function"))
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return text(fn, src)
	case "attribute":
		return text(fn.ChildByFieldName("attribute"), src)
	}
	return ""
}

// argument is one argument of a call. Positional arguments have no name.
type argument struct {
	name  string
	value *sitter.Node
}

// arguments lists the arguments of a call node in source order. Splat
// arguments (*args, **kwargs) are skipped.
func arguments(call *sitter.Node, src []byte) []argument {
	var out []argument
	for _, c := range namedChildren(call.ChildByFieldName("arguments")) {
		switch c.Type() {
		case "keyword_argument":
			out = append(out, argument{
				name:  text(c.ChildByFieldName("name"), src),
				value: c.ChildByFieldName("value"),
			})
		case "list_splat", "dictionary_splat", "parenthesized_list_splat":
		default:
			out = append(out, argument{value: c})
		}
	}
	return out
}

func keyword(args []argument, name string) (*sitter.Node, bool) {
	for _, a := range args {
		if a.name == name {
			return a.value, true
		}
	}
	return nil, false
}

func positional(args []argument, idx int) (*sitter.Node, bool) {
	i := 0
	for _, a := range args {
		if a.name != "" {
			continue
		}
		if i == idx {
			return a.value, true
		}
		i++
	}
	return nil, false
}
