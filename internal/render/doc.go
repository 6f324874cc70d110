// Package render turns a model.FlowGraph into Mermaid flowchart text.
//
// A Mermaid generator is configured once with a direction, a color scheme and
// whether utility tasks are hidden, then renders any number of graphs. Each
// call picks the variant through Options:
//
//   - Detailed diagrams append rule-file details to node labels.
//   - Overview diagrams show only the icon and the task name.
//   - PNG-safe diagrams drop emoji and HTML and draw every node as a
//     rectangle, for rasterizers that reject richer syntax.
//
// Rasterizing the text into an image is left to a Rasterizer implementation.
package render
