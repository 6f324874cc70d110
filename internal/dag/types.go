package dag

import "sync"

// Graph is an adjacency view of a flow graph. All operations on the graph are
// concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by task ID.
	nodes map[string]*node
}

// node represents a single task. It is un-exported to enforce interaction
// with the graph via the public API (using string IDs).
type node struct {
	id string
	// deps holds the upstream tasks.
	deps map[string]*node
	// dependents holds the downstream tasks.
	dependents map[string]*node
}
