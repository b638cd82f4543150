// Package types defines the public data model shared by every layoutkit
// component: byte ranges, placement metadata (LayoutEntry), declaration
// enums, typed errors, and the structured diagnostics channel.
//
// The package is dependency-free so that consumers (code generators,
// visualizers, runtime helpers) can import it without pulling in the solver.
package types
