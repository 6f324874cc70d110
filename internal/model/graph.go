// This file defines FlowGraph, the owner of a flow's tasks and edges.
//
// The graph is populated once by the builder. Afterwards analysis and
// rendering only read it, except for metadata enrichment on existing tasks.

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDuplicateTask is returned when a task ID is already present.
	ErrDuplicateTask = errors.New("duplicate task")
	// ErrTaskNotFound is returned when an edge references an unknown task.
	ErrTaskNotFound = errors.New("task not found")
)

// FlowGraph is the dependency graph of a single BMF object's flow.
type FlowGraph struct {
	ObjectName string
	ObjectPath string
	Metadata   map[string]any

	tasks     map[string]*Task
	edges     []*Edge
	edgeIndex map[EdgeKey]struct{}
	upstream  map[string][]string
	down      map[string][]string
	dupIDs    []string
}

// NewFlowGraph creates an empty graph for the named object.
func NewFlowGraph(objectName, objectPath string) *FlowGraph {
	return &FlowGraph{
		ObjectName: objectName,
		ObjectPath: objectPath,
		Metadata:   map[string]any{},
		tasks:      map[string]*Task{},
		edgeIndex:  map[EdgeKey]struct{}{},
		upstream:   map[string][]string{},
		down:       map[string][]string{},
	}
}

// AddTask inserts t. It fails with ErrDuplicateTask if the ID is taken.
func (g *FlowGraph) AddTask(t *Task) error {
	if t == nil {
		return errors.New("nil task")
	}
	if _, exists := g.tasks[t.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
	}
	g.tasks[t.ID] = t
	return nil
}

// AddEdge inserts e. Both endpoints must already exist, otherwise it fails
// with ErrTaskNotFound. An edge whose (source, target) pair is already present
// is ignored and the existing edge is kept.
func (g *FlowGraph) AddEdge(e *Edge) error {
	if e == nil {
		return errors.New("nil edge")
	}
	if _, ok := g.tasks[e.Source]; !ok {
		return fmt.Errorf("%w: source %s", ErrTaskNotFound, e.Source)
	}
	if _, ok := g.tasks[e.Target]; !ok {
		return fmt.Errorf("%w: target %s", ErrTaskNotFound, e.Target)
	}
	g.insertEdge(e)
	return nil
}

func (g *FlowGraph) insertEdge(e *Edge) bool {
	if _, dup := g.edgeIndex[e.Key()]; dup {
		return false
	}
	if e.Type == "" {
		e.Type = EdgeDependency
	}
	g.edgeIndex[e.Key()] = struct{}{}
	g.edges = append(g.edges, e)
	g.down[e.Source] = append(g.down[e.Source], e.Target)
	g.upstream[e.Target] = append(g.upstream[e.Target], e.Source)
	return true
}

// Restore assembles a graph from parts that were not produced by AddTask and
// AddEdge, such as a decoded JSON export. Nothing is rejected: a repeated task
// ID keeps the first task and is reported by DuplicateIDs, and edges may
// reference missing tasks. Run the dag validator over the result.
func Restore(objectName, objectPath string, tasks []*Task, edges []*Edge) *FlowGraph {
	g := NewFlowGraph(objectName, objectPath)
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if _, exists := g.tasks[t.ID]; exists {
			g.dupIDs = append(g.dupIDs, t.ID)
			continue
		}
		g.tasks[t.ID] = t
	}
	for _, e := range edges {
		if e != nil {
			g.insertEdge(e)
		}
	}
	return g
}

// DuplicateIDs lists task IDs that Restore saw more than once.
func (g *FlowGraph) DuplicateIDs() []string {
	return append([]string(nil), g.dupIDs...)
}

// Task returns the task with the given ID.
func (g *FlowGraph) Task(id string) (*Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// HasTask reports whether id is a task of g.
func (g *FlowGraph) HasTask(id string) bool {
	_, ok := g.tasks[id]
	return ok
}

// Len returns the number of tasks.
func (g *FlowGraph) Len() int { return len(g.tasks) }

// TaskIDs returns all task IDs sorted.
func (g *FlowGraph) TaskIDs() []string {
	ids := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tasks returns all tasks sorted by ID.
func (g *FlowGraph) Tasks() []*Task {
	ids := g.TaskIDs()
	out := make([]*Task, len(ids))
	for i, id := range ids {
		out[i] = g.tasks[id]
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *FlowGraph) Edges() []*Edge {
	return append([]*Edge(nil), g.edges...)
}

// HasEdge reports whether an edge source->target exists.
func (g *FlowGraph) HasEdge(source, target string) bool {
	_, ok := g.edgeIndex[EdgeKey{Source: source, Target: target}]
	return ok
}

// Upstream returns the IDs of the direct predecessors of id, in edge order.
// Edges to missing tasks, possible only on restored graphs, are skipped.
func (g *FlowGraph) Upstream(id string) []string {
	return g.existing(g.upstream[id])
}

// Downstream returns the IDs of the direct successors of id, in edge order.
func (g *FlowGraph) Downstream(id string) []string {
	return g.existing(g.down[id])
}

func (g *FlowGraph) existing(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := g.tasks[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Roots returns the sorted IDs of tasks without predecessors.
func (g *FlowGraph) Roots() []string {
	var out []string
	for _, id := range g.TaskIDs() {
		if len(g.Upstream(id)) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Leaves returns the sorted IDs of tasks without successors.
func (g *FlowGraph) Leaves() []string {
	var out []string
	for _, id := range g.TaskIDs() {
		if len(g.Downstream(id)) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Validate lists quick integrity problems: isolated tasks and edges whose
// endpoints are missing. The dag package performs the full analysis.
func (g *FlowGraph) Validate() []string {
	var problems []string
	var isolated []string
	for _, id := range g.TaskIDs() {
		if len(g.upstream[id]) == 0 && len(g.down[id]) == 0 {
			isolated = append(isolated, id)
		}
	}
	if len(isolated) > 0 {
		problems = append(problems, "Isolated tasks (no dependencies): "+strings.Join(isolated, ", "))
	}
	for _, e := range g.edges {
		if !g.HasTask(e.Source) {
			problems = append(problems, "Edge references non-existent source task: "+e.Source)
		}
		if !g.HasTask(e.Target) {
			problems = append(problems, "Edge references non-existent target task: "+e.Target)
		}
	}
	return problems
}

type graphJSON struct {
	ObjectName string         `json:"object_name"`
	ObjectPath string         `json:"object_path,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Tasks      []*Task        `json:"tasks"`
	Edges      []*Edge        `json:"edges"`
}

// MarshalJSON implements json.Marshaler. Tasks are sorted by ID.
func (g *FlowGraph) MarshalJSON() ([]byte, error) {
	edges := g.edges
	if edges == nil {
		edges = []*Edge{}
	}
	return json.Marshal(graphJSON{
		ObjectName: g.ObjectName,
		ObjectPath: g.ObjectPath,
		Metadata:   g.Metadata,
		Tasks:      g.Tasks(),
		Edges:      edges,
	})
}

// UnmarshalJSON implements json.Unmarshaler through Restore.
func (g *FlowGraph) UnmarshalJSON(data []byte) error {
	var raw graphJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, t := range raw.Tasks {
		if t == nil {
			continue
		}
		if m, ok := t.Metadata[MetaRuleSummary].(map[string]any); ok {
			t.Metadata[MetaRuleSummary] = summaryFromMap(m)
		}
	}
	restored := Restore(raw.ObjectName, raw.ObjectPath, raw.Tasks, raw.Edges)
	if raw.Metadata != nil {
		restored.Metadata = raw.Metadata
	}
	*g = *restored
	return nil
}

func summaryFromMap(m map[string]any) *RuleSummary {
	// Round-trip through JSON to reuse the struct tags.
	b, err := json.Marshal(m)
	if err != nil {
		return &RuleSummary{}
	}
	var s RuleSummary
	if err := json.Unmarshal(b, &s); err != nil {
		return &RuleSummary{}
	}
	return &s
}
