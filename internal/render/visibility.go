package render

import (
	"slices"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
)

// visibleTasks returns the tasks to draw, in graph order.
func (m *Mermaid) visibleTasks(g *model.FlowGraph) []*model.Task {
	tasks := g.Tasks()
	if !m.hideUtility {
		return tasks
	}
	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !slices.Contains(UtilityTypes, t.Type) {
			out = append(out, t)
		}
	}
	return out
}

// visibleEdges returns the edges between visible tasks. An edge touching one
// hidden task is replaced by edges to the nearest visible tasks beyond it,
// keeping its label. Edges between two hidden tasks are dropped and the result
// holds at most one edge per task pair.
func (m *Mermaid) visibleEdges(g *model.FlowGraph, visible []*model.Task) []*model.Edge {
	edges := g.Edges()
	if !m.hideUtility {
		return edges
	}

	shown := make(map[string]bool, len(visible))
	for _, t := range visible {
		shown[t.ID] = true
	}

	var out []*model.Edge
	seen := map[model.EdgeKey]bool{}
	add := func(src, dst string, from *model.Edge) {
		e := model.NewEdge(src, dst, from.Type).WithLabel(from.Label)
		if seen[e.Key()] {
			return
		}
		seen[e.Key()] = true
		out = append(out, e)
	}

	for _, e := range edges {
		srcShown, dstShown := shown[e.Source], shown[e.Target]
		switch {
		case srcShown && dstShown:
			if !seen[e.Key()] {
				seen[e.Key()] = true
				out = append(out, e)
			}
		case !srcShown && dstShown:
			for _, up := range nearestVisible(edges, e.Source, shown, true, map[string]bool{}) {
				add(up, e.Target, e)
			}
		case srcShown && !dstShown:
			for _, down := range nearestVisible(edges, e.Target, shown, false, map[string]bool{}) {
				add(e.Source, down, e)
			}
		}
	}
	return out
}

// nearestVisible walks from the hidden task id through hidden tasks, upstream
// or downstream, and returns the visible tasks it reaches.
func nearestVisible(edges []*model.Edge, id string, shown map[string]bool, upstream bool, visited map[string]bool) []string {
	if visited[id] {
		return nil
	}
	visited[id] = true

	var out []string
	for _, e := range edges {
		from, next := e.Target, e.Source
		if !upstream {
			from, next = e.Source, e.Target
		}
		if from != id {
			continue
		}
		if shown[next] {
			out = append(out, next)
			continue
		}
		out = append(out, nearestVisible(edges, next, shown, upstream, visited)...)
	}
	return out
}
