package builder

import (
	"fmt"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
)

// AutoLinkRule adds an edge the flow source leaves implicit. It applies only
// when the graph holds exactly one task of a From type and exactly one task of
// a To type, and no edge already connects them.
type AutoLinkRule struct {
	// Name appears in the build warning, e.g. "Mapping -> CreateObjects".
	Name  string
	From  []string
	To    []string
	Label string
}

// DefaultTerminalChain links the usual last steps of a creation flow:
// mapping, then object creation, then the report.
func DefaultTerminalChain() []AutoLinkRule {
	mapping := []string{"Mapping", "MapToSchema", "TransformMap"}
	create := []string{"CreateObjects", "CreateVeevaObjects"}
	report := []string{"GenerateReport", "Report", "ExportReport"}
	return []AutoLinkRule{
		{Name: "Mapping -> CreateObjects", From: mapping, To: create, Label: "CreateObjects"},
		{Name: "CreateObjects -> GenerateReport", From: create, To: report, Label: "GenerateReport"},
	}
}

// Apply adds the edge when the rule holds. It reports whether an edge was
// added.
func (r AutoLinkRule) Apply(g *model.FlowGraph) (bool, error) {
	from, to := tasksOfType(g, r.From), tasksOfType(g, r.To)
	if len(from) != 1 || len(to) != 1 {
		return false, nil
	}
	if g.HasEdge(from[0], to[0]) {
		return false, nil
	}
	e := model.NewEdge(from[0], to[0], model.EdgeDependency).WithLabel(r.Label)
	if err := g.AddEdge(e); err != nil {
		return false, fmt.Errorf("auto-link %s: %w", r.Name, err)
	}
	return true, nil
}

func tasksOfType(g *model.FlowGraph, types []string) []string {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var ids []string
	for _, t := range g.Tasks() {
		if want[t.Type] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
