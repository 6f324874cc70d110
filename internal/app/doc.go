// Package app contains the core application logic. It wires the task type
// registry, the graph builder and the Mermaid renderer together, decoupled
// from any specific entrypoint like a CLI.
package app
