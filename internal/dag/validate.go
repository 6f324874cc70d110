package dag

import (
	"fmt"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
)

// Report is the outcome of Validate. Errors make a graph invalid; warnings
// are informational.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether no errors were found.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

// Validate runs every structural check over fg. Checks do not short-circuit,
// except that an empty graph is reported on its own.
func Validate(fg *model.FlowGraph) Report {
	var r Report
	if fg == nil || fg.Len() == 0 {
		r.Errors = append(r.Errors, "Graph has no tasks")
		return r
	}

	for _, e := range fg.Edges() {
		if !fg.HasTask(e.Source) {
			r.Errors = append(r.Errors, "Edge references non-existent source: "+e.Source)
		}
		if !fg.HasTask(e.Target) {
			r.Errors = append(r.Errors, "Edge references non-existent target: "+e.Target)
		}
	}

	g := FromFlow(fg)
	if isolated := g.Isolated(); len(isolated) > 0 {
		r.Warnings = append(r.Warnings, "Isolated tasks: "+strings.Join(isolated, ", "))
	}

	if g.DetectCycles() != nil {
		r.Errors = append(r.Errors, "Graph contains cycles")
	}

	if secondary := g.Secondary(); len(secondary) > 0 {
		var unreachable []string
		for _, c := range secondary {
			unreachable = append(unreachable, c...)
		}
		r.Warnings = append(r.Warnings, "Unreachable tasks: "+strings.Join(unreachable, ", "))
		for _, c := range secondary {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"Disconnected component (size %d) starting at %s: %s", len(c), c[0], strings.Join(c, ", ")))
		}
	}

	for _, id := range fg.TaskIDs() {
		if strings.TrimSpace(id) == "" {
			r.Errors = append(r.Errors, "Empty task ID found")
		}
	}
	for _, id := range fg.DuplicateIDs() {
		r.Errors = append(r.Errors, "Duplicate task ID: "+id)
	}
	return r
}
