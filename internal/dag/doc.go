// Package dag analyzes the dependency structure of a flow graph: execution
// layers, the critical path, dependency depth, cycles and weakly connected
// components. Validate combines the structural checks into a Report.
//
// Analyses build a Graph, an adjacency view keyed by task ID, from a
// model.FlowGraph. Edges whose endpoints are missing are left out of the
// view; Validate reports them separately.
package dag
