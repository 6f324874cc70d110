// Package pyflow extracts tasks and their dependencies from a BMF
// creation_flow.py file without executing it.
//
// The source is parsed with tree-sitter and scanned in four passes:
//
//  1. Task discovery. Every single-target assignment whose right-hand side
//     calls a registered task type, e.g. `rows = ReadExcel(...)`, becomes a
//     Task named after the bound variable. A display name is taken from
//     `task_args=dict(name="...")` when present.
//  2. Explicit dependencies. Statement-level calls of set_upstream,
//     set_downstream and set_dependencies on a task variable become
//     "dependency" edges.
//  3. Enrichment. Color, category and icon are attached from the registry.
//  4. Implicit dependencies. Task variables passed through input_table or
//     input_paths become "data_dependency" edges into the declaring task.
//
// Keyword arguments are kept as model.Value trees. Nested calls are never
// evaluated; they are recorded as placeholders such as "full_path(...)".
package pyflow
