// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into the application's internal configuration and
// owns the pieces that talk to the outside world: the Mermaid CLI
// rasterizer, the terminal report and watch mode.
package cli
