package dag

import (
	"fmt"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
)

// Layers groups nodes into execution layers. Each layer holds the nodes whose
// dependencies all sit in earlier layers. When the remaining nodes form a
// cycle no further layer can be built and the result is partial.
func (g *Graph) Layers() [][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	ids := sortedKeys(g.nodes)
	processed := make(map[string]bool, len(ids))
	var layers [][]string

	for len(processed) < len(ids) {
		var layer []string
		for _, id := range ids {
			if processed[id] {
				continue
			}
			ready := true
			for dep := range g.nodes[id].deps {
				if !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, id)
			}
		}
		if len(layer) == 0 {
			break
		}
		for _, id := range layer {
			processed[id] = true
		}
		layers = append(layers, layer)
	}
	return layers
}

// CriticalPath returns the longest chain of dependents starting at a root.
// Ties are broken by ID order.
func (g *Graph) CriticalPath() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	memo := make(map[string]int, len(g.nodes))
	onPath := make(map[string]bool)

	var longest func(n *node) int
	longest = func(n *node) int {
		if l, ok := memo[n.id]; ok {
			return l
		}
		if onPath[n.id] {
			return 0
		}
		onPath[n.id] = true
		best := 0
		for _, id := range sortedKeys(n.dependents) {
			if l := longest(n.dependents[id]); l > best {
				best = l
			}
		}
		delete(onPath, n.id)
		memo[n.id] = best + 1
		return best + 1
	}

	var start *node
	bestLen := 0
	for _, id := range sortedKeys(g.nodes) {
		n := g.nodes[id]
		if len(n.deps) > 0 {
			continue
		}
		if l := longest(n); l > bestLen {
			bestLen, start = l, n
		}
	}
	if start == nil {
		return nil
	}

	path := []string{start.id}
	seen := map[string]bool{start.id: true}
	for cur := start; ; {
		var next *node
		best := 0
		for _, id := range sortedKeys(cur.dependents) {
			if seen[id] {
				continue
			}
			if l := longest(cur.dependents[id]); l > best {
				best, next = l, cur.dependents[id]
			}
		}
		if next == nil {
			break
		}
		path = append(path, next.id)
		seen[next.id] = true
		cur = next
	}
	return path
}

// Depth returns the number of dependency hops above id: 0 for a root, else
// one more than the deepest dependency. A node met again on the current path
// contributes 0.
func (g *Graph) Depth(id string) (int, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	onPath := make(map[string]bool)
	var depth func(n *node) int
	depth = func(n *node) int {
		if onPath[n.id] || len(n.deps) == 0 {
			return 0
		}
		onPath[n.id] = true
		defer delete(onPath, n.id)

		best := 0
		for _, dep := range n.deps {
			if d := depth(dep); d > best {
				best = d
			}
		}
		return best + 1
	}
	return depth(n), nil
}

// Isolated returns the sorted IDs of nodes without any edge.
func (g *Graph) Isolated() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []string
	for _, id := range sortedKeys(g.nodes) {
		n := g.nodes[id]
		if len(n.deps) == 0 && len(n.dependents) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Components returns the weakly connected components in discovery order.
// Discovery starts from the lowest unvisited ID and each component lists its
// members in breadth-first order.
func (g *Graph) Components() [][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	visited := make(map[string]bool, len(g.nodes))
	var components [][]string

	for _, start := range sortedKeys(g.nodes) {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []string{start}
		var comp []string
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, nb := range neighbours(g.nodes[cur]) {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		components = append(components, comp)
	}
	return components
}

// neighbours returns the sorted IDs adjacent to n in either direction.
func neighbours(n *node) []string {
	set := make(map[string]*node, len(n.deps)+len(n.dependents))
	for id, d := range n.deps {
		set[id] = d
	}
	for id, d := range n.dependents {
		set[id] = d
	}
	return sortedKeys(set)
}

// Secondary returns every component except the primary one, the largest by
// node count. The first discovered component wins a tie. It returns nil when
// the graph is weakly connected.
func (g *Graph) Secondary() [][]string {
	components := g.Components()
	if len(components) <= 1 {
		return nil
	}
	primary := 0
	for i, c := range components {
		if len(c) > len(components[primary]) {
			primary = i
		}
	}
	out := make([][]string, 0, len(components)-1)
	for i, c := range components {
		if i != primary {
			out = append(out, c)
		}
	}
	return out
}

// ExecutionLayers groups the tasks of fg into execution layers.
func ExecutionLayers(fg *model.FlowGraph) [][]string {
	return FromFlow(fg).Layers()
}

// CriticalPath returns the longest dependency chain of fg.
func CriticalPath(fg *model.FlowGraph) []string {
	return FromFlow(fg).CriticalPath()
}

// DependencyDepth returns the depth of a task in fg.
func DependencyDepth(fg *model.FlowGraph, id string) (int, error) {
	return FromFlow(fg).Depth(id)
}

// HasCycle reports whether fg contains a dependency cycle.
func HasCycle(fg *model.FlowGraph) bool {
	return FromFlow(fg).DetectCycles() != nil
}

// FindCycle returns one dependency cycle of fg, or nil.
func FindCycle(fg *model.FlowGraph) []string {
	return FromFlow(fg).FindCycle()
}

// IsolatedTasks returns the tasks of fg that have no edges.
func IsolatedTasks(fg *model.FlowGraph) []string {
	return FromFlow(fg).Isolated()
}

// Components returns the weakly connected components of fg.
func Components(fg *model.FlowGraph) [][]string {
	return FromFlow(fg).Components()
}

// DisconnectedComponents returns the components of fg outside the primary
// one.
func DisconnectedComponents(fg *model.FlowGraph) [][]string {
	return FromFlow(fg).Secondary()
}
