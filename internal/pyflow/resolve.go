package pyflow

import (
	"strconv"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	sitter "github.com/smacker/go-tree-sitter"
)

// resolve converts an expression node into a Value without evaluating it.
func resolve(n *sitter.Node, src []byte) model.Value {
	return resolveDepth(n, src, 0)
}

func resolveDepth(n *sitter.Node, src []byte, depth int) model.Value {
	n = unwrap(n)
	if n == nil || depth > maxDepth {
		return model.Absent()
	}

	switch n.Type() {
	case "string":
		if s, ok := stringLiteral(n, src); ok {
			return model.String(s)
		}
	case "concatenated_string":
		var b strings.Builder
		for _, part := range namedChildren(n) {
			s, ok := stringLiteral(part, src)
			if !ok {
				return model.Absent()
			}
			b.WriteString(s)
		}
		return model.String(b.String())
	case "integer":
		if i, ok := parseInt(text(n, src)); ok {
			return model.Scalar(i)
		}
	case "float":
		if f, err := strconv.ParseFloat(strings.ReplaceAll(text(n, src), "_", ""), 64); err == nil {
			return model.Scalar(f)
		}
	case "true":
		return model.Scalar(true)
	case "false":
		return model.Scalar(false)
	case "none":
		return model.Scalar(nil)
	case "identifier":
		return model.Identifier(text(n, src))
	case "call":
		return model.Placeholder(calleeName(n, src))
	case "attribute":
		base := resolveDepth(n.ChildByFieldName("object"), src, depth+1)
		if base.IsAbsent() {
			return model.Absent()
		}
		return model.Identifier(base.String() + "." + text(n.ChildByFieldName("attribute"), src))
	case "dictionary":
		var entries []model.Entry
		for _, pair := range namedChildren(n) {
			if pair.Type() != "pair" {
				continue
			}
			entries = append(entries, model.Entry{
				Key:   resolveDepth(pair.ChildByFieldName("key"), src, depth+1),
				Value: resolveDepth(pair.ChildByFieldName("value"), src, depth+1),
			})
		}
		return model.Mapping(entries...)
	case "list":
		return model.Sequence(resolveItems(n, src, depth)...)
	case "tuple":
		return model.Tuple(resolveItems(n, src, depth)...)
	case "unary_operator":
		return resolveSigned(n, src, depth)
	}
	return model.Absent()
}

func resolveItems(n *sitter.Node, src []byte, depth int) []model.Value {
	children := namedChildren(n)
	items := make([]model.Value, 0, len(children))
	for _, c := range children {
		items = append(items, resolveDepth(c, src, depth+1))
	}
	return items
}

// resolveSigned handles -1 and +2.5.
func resolveSigned(n *sitter.Node, src []byte, depth int) model.Value {
	op := text(n.ChildByFieldName("operator"), src)
	v := resolveDepth(n.ChildByFieldName("argument"), src, depth+1)
	if v.Kind != model.KindScalar || (op != "-" && op != "+") {
		return model.Absent()
	}
	switch x := v.Scalar.(type) {
	case int64:
		if op == "-" {
			x = -x
		}
		return model.Scalar(x)
	case float64:
		if op == "-" {
			x = -x
		}
		return model.Scalar(x)
	}
	return model.Absent()
}

func parseInt(s string) (int64, bool) {
	s = strings.ToLower(strings.ReplaceAll(s, "_", ""))
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		// Python 3 only allows leading zeros in 0, 00, ...
		s = strings.TrimLeft(s, "0")
		if s == "" {
			return 0, true
		}
	}
	i, err := strconv.ParseInt(s, 0, 64)
	return i, err == nil
}

var unescaper = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
	`\'`, `'`,
	`\"`, `"`,
)

// stringLiteral decodes a string node, honoring prefixes and the common
// escapes. F-strings with interpolations and byte strings are not literals.
func stringLiteral(n *sitter.Node, src []byte) (string, bool) {
	if n == nil || n.Type() != "string" {
		return "", false
	}
	for _, c := range namedChildren(n) {
		if c.Type() == "interpolation" {
			return "", false
		}
	}

	raw := text(n, src)
	i := 0
	for i < len(raw) && strings.ContainsRune("rRbBuUfF", rune(raw[i])) {
		i++
	}
	prefix, body := strings.ToLower(raw[:i]), raw[i:]
	if strings.Contains(prefix, "b") {
		return "", false
	}
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			body = body[len(q) : len(body)-len(q)]
			break
		}
	}
	if !strings.Contains(prefix, "r") {
		body = unescaper.Replace(body)
	}
	return body, true
}
