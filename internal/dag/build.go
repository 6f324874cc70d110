package dag

import (
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
)

// FromFlow builds the adjacency view of a flow graph. Edges with a missing
// endpoint are skipped.
func FromFlow(fg *model.FlowGraph) *Graph {
	g := New()
	if fg == nil {
		return g
	}
	for _, id := range fg.TaskIDs() {
		g.AddNode(id)
	}
	for _, e := range fg.Edges() {
		// The error only reports a dangling endpoint.
		_ = g.AddEdge(e.Source, e.Target)
	}
	return g
}
