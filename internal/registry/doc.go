// Package registry is the structured-config provider for task types.
//
// A Registry resolves logical document names (such as "task_definitions")
// against a file system, decodes them once, and serves the cached Document to
// every caller afterwards. Documents may be written in YAML or in HCL; both
// decode into the same format-agnostic Document.
//
// The task_definitions document drives the whole tool: its keys decide which
// constructor calls in a flow file are tasks, and its categories, colors,
// shapes and icons decide how those tasks are drawn. Every accessor falls back
// to a documented default for unknown task types, so a sparse registry never
// breaks parsing or rendering.
//
// A Registry is constructed explicitly and passed to the components that need
// it. It is safe for concurrent use.
package registry
