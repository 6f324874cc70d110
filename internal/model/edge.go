// This file defines Edge, a directed dependency between two tasks.

package model

// EdgeType tells explicit wiring apart from inferred data flow.
type EdgeType string

const (
	// EdgeDependency is wired with set_upstream, set_downstream or
	// set_dependencies, or synthesized by an auto-link rule.
	EdgeDependency EdgeType = "dependency"
	// EdgeDataDependency is inferred from a constructor's input arguments.
	EdgeDataDependency EdgeType = "data_dependency"
)

// EdgeKey identifies an edge. Two edges with the same key are the same edge.
type EdgeKey struct {
	Source string
	Target string
}

// Edge is a directed dependency: Source must complete before Target.
type Edge struct {
	Source   string         `json:"source_id"`
	Target   string         `json:"target_id"`
	Label    string         `json:"label,omitempty"`
	Type     EdgeType       `json:"edge_type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEdge creates an edge of the given type.
func NewEdge(source, target string, typ EdgeType) *Edge {
	if typ == "" {
		typ = EdgeDependency
	}
	return &Edge{Source: source, Target: target, Type: typ, Metadata: map[string]any{}}
}

// Key returns the identity of e.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target}
}

// Equal compares endpoints only.
func (e *Edge) Equal(other *Edge) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Key() == other.Key()
}

// WithLabel sets the label and returns e.
func (e *Edge) WithLabel(label string) *Edge {
	e.Label = label
	return e
}
