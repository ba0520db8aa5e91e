// Package bundler wraps the external bundling engine used to compile
// presences. The engine itself is a black box: this package owns the
// process-level contract (config on stdin, NDJSON events on stdout) and the
// diagnostic types flowing back from it.
package bundler

import "context"

// Diagnostic is a single non-fatal problem reported by the bundling engine,
// carrying its originating source location.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// KindModuleBuild tags wrapper diagnostics the engine emits around an
// underlying loader diagnostic that is also present in the list.
const KindModuleBuild = "ModuleBuildError"

// Entries maps entry names to their paths relative to the unit directory.
type Entries map[string]string

// Config is the engine configuration for one invocation.
type Config struct {
	Mode          string            `json:"mode"`
	SourceMap     string            `json:"sourceMap"`
	OutputDir     string            `json:"outputDir"`
	Extensions    []string          `json:"extensions"`
	Exclude       []string          `json:"exclude"`
	TranspileOnly bool              `json:"transpileOnly"`
	Emit          bool              `json:"emit"`
	Defines       map[string]string `json:"defines,omitempty"`
}

// Result is the structured outcome of a successful engine invocation.
// Diagnostics may be non-empty; that is not an invocation failure.
type Result struct {
	Diagnostics []Diagnostic
}

// Bundler drives one compilation of a unit directory. The returned error is
// a fatal invocation failure (the engine could not run to completion);
// compile problems come back as Result diagnostics. Implementations settle
// exactly once per call.
type Bundler interface {
	Bundle(ctx context.Context, dir string, cfg Config, entries Entries) (*Result, error)
}
