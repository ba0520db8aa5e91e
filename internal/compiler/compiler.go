// Package compiler is the compilation orchestrator: it resolves presences,
// provisions their dependencies, drives the bundling engine and aggregates
// the surviving diagnostics, guaranteeing that the ephemeral per-unit build
// configuration is removed on every exit path.
//
// Units are processed strictly sequentially; the bundle invocation is the
// only suspension point per unit.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/presencelabs/presencec/internal/bundler"
	"github.com/presencelabs/presencec/internal/deps"
	"github.com/presencelabs/presencec/internal/events"
	"github.com/presencelabs/presencec/internal/logfields"
	"github.com/presencelabs/presencec/internal/metrics"
	"github.com/presencelabs/presencec/internal/report"
	"github.com/presencelabs/presencec/internal/store"
)

// Options are the recognized compile options.
type Options struct {
	// Output is the destination directory. Empty means each unit's own
	// source directory.
	Output string

	// TranspileOnly skips full type checking and only transforms syntax.
	TranspileOnly bool

	// Emit controls whether compiled output is written to disk. Start from
	// DefaultOptions to get the emitting default.
	Emit bool
}

// DefaultOptions returns the defaults: emit enabled, full type checking,
// per-unit output directories.
func DefaultOptions() Options {
	return Options{Emit: true}
}

// DefaultBundlerConfig is the engine configuration shared by all units:
// production optimization, inline source maps, TypeScript-only resolution,
// dependency directories excluded from transformation.
func DefaultBundlerConfig() bundler.Config {
	return bundler.Config{
		Mode:       "production",
		SourceMap:  "inline",
		Extensions: []string{".ts"},
		Exclude:    []string{"node_modules"},
	}
}

// Compiler coordinates per-unit compilation.
type Compiler struct {
	store      *store.Store
	bundler    bundler.Bundler
	installer  deps.Installer
	reporter   report.Reporter
	recorder   metrics.Recorder
	publisher  events.Publisher
	baseConfig bundler.Config
	revision   string
}

// Option customizes a Compiler.
type Option func(*Compiler)

// WithReporter sets the reporting sink (default: report.Nop).
func WithReporter(r report.Reporter) Option {
	return func(c *Compiler) { c.reporter = r }
}

// WithRecorder sets the metrics recorder (default: metrics.NoopRecorder).
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Compiler) { c.recorder = r }
}

// WithPublisher sets the build event publisher (default: events.NopPublisher).
func WithPublisher(p events.Publisher) Option {
	return func(c *Compiler) { c.publisher = p }
}

// WithBundlerConfig overrides the base engine configuration.
func WithBundlerConfig(cfg bundler.Config) Option {
	return func(c *Compiler) { c.baseConfig = cfg }
}

// WithRevision stamps compiled output with the store revision: it is
// injected into the engine defines and attached to published events.
func WithRevision(rev string) Option {
	return func(c *Compiler) { c.revision = rev }
}

// New creates a Compiler over the given store, engine and installer.
func New(st *store.Store, b bundler.Bundler, inst deps.Installer, opts ...Option) *Compiler {
	c := &Compiler{
		store:      st,
		bundler:    b,
		installer:  inst,
		reporter:   report.Nop{},
		recorder:   metrics.NoopRecorder{},
		publisher:  events.NopPublisher{},
		baseConfig: DefaultBundlerConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileOne compiles a single presence. The returned diagnostics are the
// post-filter list; empty means success. A non-nil error is a fatal
// invocation failure (installer or engine), never a diagnostic.
func (c *Compiler) CompileOne(ctx context.Context, name string, opts Options) ([]bundler.Diagnostic, error) {
	invocationID := uuid.NewString()
	unit := c.store.Resolve(name)
	slog.Info("Compiling presence", logfields.Presence(unit.Name), logfields.Path(unit.Dir))

	configPath, err := c.writeEphemeralConfig(unit, opts)
	if err != nil {
		return nil, err
	}
	defer removeEphemeralConfig(configPath)

	result, elapsed, err := c.compileUnit(ctx, unit, opts)
	if err != nil {
		return nil, err
	}

	diags := bundler.FilterDiagnostics(result.Diagnostics)
	c.observeUnit(ctx, invocationID, unit, len(diags), elapsed)
	if len(diags) == 0 {
		c.reporter.Successf("Successfully %s %s", doneVerb(opts), unit.Name)
	}
	return diags, nil
}

// Compile compiles a batch of presences strictly sequentially, in the given
// order. Diagnostics of all units are aggregated in unit order. A fatal
// invocation error for any unit aborts the remaining batch; ephemeral
// configs written so far are still removed.
func (c *Compiler) Compile(ctx context.Context, names []string, opts Options) ([]bundler.Diagnostic, error) {
	invocationID := uuid.NewString()
	c.reporter.Infof("Compiling %d presences", len(names))

	// Guaranteed release: sweeps whatever the ordered removal below has not
	// already handled, covering the fatal-abort path.
	var written []string
	defer func() {
		for _, p := range written {
			removeEphemeralConfig(p)
		}
	}()

	var all []bundler.Diagnostic
	for _, name := range names {
		unit := c.store.Resolve(name)
		slog.Info("Compiling presence", logfields.Presence(unit.Name), logfields.Path(unit.Dir))

		configPath, err := c.writeEphemeralConfig(unit, opts)
		if err != nil {
			c.recorder.IncBatchOutcome("failed")
			return nil, err
		}
		written = append(written, configPath)

		result, elapsed, err := c.compileUnit(ctx, unit, opts)
		if err != nil {
			c.recorder.IncBatchOutcome("failed")
			return nil, err
		}
		c.observeUnit(ctx, invocationID, unit, len(bundler.FilterDiagnostics(result.Diagnostics)), elapsed)
		all = append(all, result.Diagnostics...)
	}

	// Normal completion: remove every surviving config in unit order.
	for _, p := range written {
		removeEphemeralConfig(p)
	}
	written = nil

	diags := bundler.FilterDiagnostics(all)
	if len(diags) == 0 {
		c.reporter.Successf("Successfully %s %d presences", doneVerb(opts), len(names))
		c.recorder.IncBatchOutcome("success")
	} else {
		c.recorder.IncBatchOutcome("problems")
	}
	return diags, nil
}

// compileUnit runs provisioning and the bundle invocation for one unit. The
// caller owns the unit's ephemeral config lifecycle.
func (c *Compiler) compileUnit(ctx context.Context, unit store.Unit, opts Options) (*bundler.Result, time.Duration, error) {
	start := time.Now()

	if unit.HasManifest {
		installStart := time.Now()
		if err := c.installer.Install(ctx, unit.Dir); err != nil {
			c.recorder.IncUnitResult(metrics.ResultFatal)
			return nil, 0, fmt.Errorf("provision %s: %w", unit.Name, errors.Join(ErrInstall, err))
		}
		c.recorder.ObserveInstallDuration(time.Since(installStart))
	}

	result, err := c.bundler.Bundle(ctx, unit.Dir, c.unitConfig(unit, opts), unit.Entries())
	if err != nil {
		c.recorder.IncUnitResult(metrics.ResultFatal)
		return nil, 0, fmt.Errorf("bundle %s: %w", unit.Name, errors.Join(ErrBundle, err))
	}
	return result, time.Since(start), nil
}

// unitConfig derives the engine configuration for one unit from the base
// configuration and the compile options.
func (c *Compiler) unitConfig(unit store.Unit, opts Options) bundler.Config {
	cfg := c.baseConfig
	cfg.TranspileOnly = opts.TranspileOnly
	cfg.Emit = opts.Emit
	cfg.OutputDir = opts.Output
	if cfg.OutputDir == "" {
		cfg.OutputDir = unit.Dir
	}
	if c.revision != "" {
		defines := map[string]string{"PRESENCE_REVISION": c.revision}
		for k, v := range cfg.Defines {
			defines[k] = v
		}
		cfg.Defines = defines
	}
	return cfg
}

// observeUnit records metrics and publishes the unit outcome. Both are
// fire-and-forget and never affect control flow.
func (c *Compiler) observeUnit(ctx context.Context, invocationID string, unit store.Unit, diagCount int, elapsed time.Duration) {
	c.recorder.ObserveUnitDuration(unit.Name, elapsed)
	result := metrics.ResultSuccess
	if diagCount > 0 {
		result = metrics.ResultProblem
	}
	c.recorder.IncUnitResult(result)

	err := c.publisher.PublishUnitResult(ctx, events.UnitResult{
		InvocationID: invocationID,
		Presence:     unit.Name,
		Success:      diagCount == 0,
		Diagnostics:  diagCount,
		DurationMS:   elapsed.Milliseconds(),
		Revision:     c.revision,
	})
	if err != nil {
		slog.Debug("Failed to publish unit result", logfields.Presence(unit.Name), logfields.Error(err))
	}
}

func doneVerb(opts Options) string {
	if opts.TranspileOnly {
		return "transpiled"
	}
	return "compiled"
}
