// This file defines FlowAnalysis, the record the source parser produces for
// one flow file before any graph is assembled.

package model

// FlowAnalysis holds what the source parser extracted from a flow file.
// Problems are collected as messages; a parse never aborts with an error.
type FlowAnalysis struct {
	ObjectName  string
	FilePath    string
	Tasks       []*Task
	Edges       []*Edge
	RawMetadata map[string]any
	Errors      []string
	Warnings    []string
}

// NewFlowAnalysis creates an empty analysis for the named object.
func NewFlowAnalysis(objectName, filePath string) *FlowAnalysis {
	return &FlowAnalysis{
		ObjectName:  objectName,
		FilePath:    filePath,
		RawMetadata: map[string]any{},
	}
}

// HasErrors reports whether any error was recorded.
func (a *FlowAnalysis) HasErrors() bool { return len(a.Errors) > 0 }

// HasWarnings reports whether any warning was recorded.
func (a *FlowAnalysis) HasWarnings() bool { return len(a.Warnings) > 0 }

// TaskIDs returns the set of discovered task IDs.
func (a *FlowAnalysis) TaskIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(a.Tasks))
	for _, t := range a.Tasks {
		ids[t.ID] = struct{}{}
	}
	return ids
}

// AddEdge appends e unless an edge with the same endpoints is already
// recorded. It reports whether e was added.
func (a *FlowAnalysis) AddEdge(e *Edge) bool {
	for _, existing := range a.Edges {
		if existing.Equal(e) {
			return false
		}
	}
	a.Edges = append(a.Edges, e)
	return true
}
