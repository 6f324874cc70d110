package pyflow

import (
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	sitter "github.com/smacker/go-tree-sitter"
)

// Dependency-declaring methods called on a task variable.
const (
	methodSetUpstream     = "set_upstream"
	methodSetDownstream   = "set_downstream"
	methodSetDependencies = "set_dependencies"
)

// binding is a single-target assignment `name = callee(...)`.
type binding struct {
	name   string
	callee string
	call   *sitter.Node
	line   int
}

// scan holds the state shared by the parsing passes.
type scan struct {
	src  []byte
	path string
	reg  Registry

	bindings  []binding
	statement []*sitter.Node // statement-level calls
	known     map[string]struct{}
}

// collectAssignments records every call-valued single-target assignment and
// every statement-level call, at any nesting depth.
func (s *scan) collectAssignments(root *sitter.Node) {
	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "assignment":
			if b, ok := s.binding(n); ok {
				s.bindings = append(s.bindings, b)
			}
		case "expression_statement":
			for _, c := range namedChildren(n) {
				if c = unwrap(c); c.Type() == "call" {
					s.statement = append(s.statement, c)
				}
			}
		}
	}, 0)
}

func (s *scan) binding(n *sitter.Node) (binding, bool) {
	// Chained assignments (a = b = T()) bind several targets.
	if p := n.Parent(); p != nil && p.Type() == "assignment" {
		return binding{}, false
	}
	left, right := n.ChildByFieldName("left"), unwrap(n.ChildByFieldName("right"))
	if left == nil || right == nil || left.Type() != "identifier" || right.Type() != "call" {
		return binding{}, false
	}
	return binding{
		name:   text(left, s.src),
		callee: calleeName(right, s.src),
		call:   right,
		line:   line(n),
	}, true
}

// discoverTasks turns bindings to registered task types into tasks. A name
// bound twice yields two tasks with the same ID; graph insertion rejects the
// second.
func (s *scan) discoverTasks(a *model.FlowAnalysis) {
	s.known = make(map[string]struct{})
	for _, b := range s.bindings {
		if b.callee == "" || !s.reg.IsTaskType(b.callee) {
			continue
		}
		args := arguments(b.call, s.src)
		t := model.NewTask(b.name, b.callee, s.taskName(args))
		t.Line = b.line
		t.FilePath = s.path
		for _, arg := range args {
			if arg.name == "" {
				continue
			}
			t.SetParameter(arg.name, resolve(arg.value, s.src))
		}
		a.Tasks = append(a.Tasks, t)
		s.known[b.name] = struct{}{}
	}
}

// taskName reads the display name from task_args=dict(name="...") or
// task_args={"name": "..."}.
func (s *scan) taskName(args []argument) string {
	n, ok := keyword(args, argTaskArgs)
	if !ok {
		return ""
	}
	n = unwrap(n)
	var v model.Value
	switch n.Type() {
	case "call":
		nameNode, ok := keyword(arguments(n, s.src), "name")
		if !ok {
			return ""
		}
		v = resolve(nameNode, s.src)
	case "dictionary":
		v, _ = resolve(n, s.src).Lookup("name")
	default:
		return ""
	}
	if name, ok := v.Scalar.(string); ok && v.Kind == model.KindScalar {
		return name
	}
	return ""
}

// explicitDependencies reads set_upstream, set_downstream and
// set_dependencies calls made as statements on task variables.
func (s *scan) explicitDependencies(a *model.FlowAnalysis) {
	for _, call := range s.statement {
		fn := unwrap(call.ChildByFieldName("function"))
		if fn == nil || fn.Type() != "attribute" {
			continue
		}
		recv := unwrap(fn.ChildByFieldName("object"))
		if recv == nil || recv.Type() != "identifier" {
			continue
		}
		receiver := text(recv, s.src)
		if !s.isTask(receiver) {
			continue
		}
		args := arguments(call, s.src)

		switch text(fn.ChildByFieldName("attribute"), s.src) {
		case methodSetUpstream:
			for _, up := range s.targets(args, "task", "task_list") {
				s.link(a, up, receiver, model.EdgeDependency)
			}
		case methodSetDownstream:
			for _, down := range s.targets(args, "task", "task_list") {
				s.link(a, receiver, down, model.EdgeDependency)
			}
		case methodSetDependencies:
			if n, ok := keyword(args, "upstream_tasks"); ok {
				for _, up := range s.taskRefs(n) {
					s.link(a, up, receiver, model.EdgeDependency)
				}
			}
			if n, ok := keyword(args, "downstream_tasks"); ok {
				for _, down := range s.taskRefs(n) {
					s.link(a, receiver, down, model.EdgeDependency)
				}
			}
		}
	}
}

// targets collects task names from the given keywords, falling back to the
// first positional argument.
func (s *scan) targets(args []argument, keywords ...string) []string {
	var out []string
	found := false
	for _, kw := range keywords {
		if n, ok := keyword(args, kw); ok {
			found = true
			out = append(out, s.taskRefs(n)...)
		}
	}
	if !found {
		if n, ok := positional(args, 0); ok {
			out = append(out, s.taskRefs(n)...)
		}
	}
	return out
}

// taskRefs returns the names in n when it is a name or a list/tuple of
// names.
func (s *scan) taskRefs(n *sitter.Node) []string {
	n = unwrap(n)
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return []string{text(n, s.src)}
	case "list", "tuple":
		var out []string
		for _, item := range namedChildren(n) {
			if item = unwrap(item); item.Type() == "identifier" {
				out = append(out, text(item, s.src))
			}
		}
		return out
	}
	return nil
}

// implicitDependencies links tasks whose input_table or input_paths
// reference another task variable.
func (s *scan) implicitDependencies(a *model.FlowAnalysis) {
	for _, b := range s.bindings {
		if !s.isTask(b.name) {
			continue
		}
		args := arguments(b.call, s.src)
		for _, kw := range []string{argInputTable, argInputPaths} {
			n, ok := keyword(args, kw)
			if !ok {
				continue
			}
			for _, src := range s.dataRefs(n) {
				s.link(a, src, b.name, model.EdgeDataDependency)
			}
		}
	}
}

// dataRefs returns the names referenced by an input argument: a name, the
// names inside a list or tuple, or the base of a subscript such as
// `merged["orders"]`.
func (s *scan) dataRefs(n *sitter.Node) []string {
	n = unwrap(n)
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return []string{text(n, s.src)}
	case "list", "tuple":
		return s.taskRefs(n)
	case "subscript":
		if base := unwrap(n.ChildByFieldName("value")); base != nil && base.Type() == "identifier" {
			return []string{text(base, s.src)}
		}
	}
	return nil
}

func (s *scan) isTask(name string) bool {
	_, ok := s.known[name]
	return ok
}

// link adds an edge between two known tasks unless the pair is already
// linked.
func (s *scan) link(a *model.FlowAnalysis, source, target string, typ model.EdgeType) {
	if !s.isTask(source) || !s.isTask(target) {
		return
	}
	a.AddEdge(model.NewEdge(source, target, typ))
}
