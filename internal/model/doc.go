// Package model provides the in-memory representation of a BMF flow: the tasks
// declared in a flow's creation_flow.py, the dependency edges between them, and
// the FlowGraph that owns both.
//
// # Core Concepts
//
//   - Task: a single task instantiation. Identity is the binding name the
//     task was assigned to in the flow source; two tasks with the same ID are
//     the same task regardless of any other field.
//
//   - Edge: a directed dependency between two tasks. Identity is the
//     (source, target) pair. An edge is either an explicit "dependency" wired
//     through set_upstream/set_downstream/set_dependencies, or an inferred
//     "data_dependency" taken from a constructor's input arguments.
//
//   - FlowGraph: owns the task index and the ordered edge list. Insertion
//     enforces that task IDs are unique and that every edge endpoint already
//     exists. Duplicate edges are ignored.
//
//   - Value: the resolved form of a keyword argument in the flow source. It is
//     a tagged variant; consumers switch on Value.Kind.
//
//   - RuleSummary: counts and distinct categories taken from the YAML rule files
//     a task references, attached to the task's metadata during enrichment.
//
// Graphs restored from untrusted data (for example a JSON export) bypass the
// insertion checks. Use the dag package's validator to report their problems.
package model
