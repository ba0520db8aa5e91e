package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/presencelabs/presencec/internal/bundler"
	"github.com/presencelabs/presencec/internal/compiler"
	"github.com/presencelabs/presencec/internal/config"
	"github.com/presencelabs/presencec/internal/deps"
	"github.com/presencelabs/presencec/internal/events"
	"github.com/presencelabs/presencec/internal/gitmeta"
	"github.com/presencelabs/presencec/internal/history"
	"github.com/presencelabs/presencec/internal/logfields"
	"github.com/presencelabs/presencec/internal/metrics"
	"github.com/presencelabs/presencec/internal/report"
	"github.com/presencelabs/presencec/internal/store"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Names         []string `arg:"" optional:"" help:"Presence names to compile"`
	All           bool     `help:"Compile every presence in the store"`
	Output        string   `short:"o" help:"Output directory (default: each presence's own directory)"`
	TranspileOnly bool     `name:"transpile-only" help:"Skip type checking; only transform syntax"`
	NoEmit        bool     `name:"no-emit" help:"Check without writing compiled output"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if b.All && len(b.Names) > 0 {
		return fmt.Errorf("--all and explicit presence names are mutually exclusive")
	}

	st := store.New(cfg.Store)
	names := b.Names
	if b.All {
		names, err = st.List()
		if err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no presences to compile (pass names or --all)")
	}

	reporter := &report.Console{CI: cfg.CI}
	engine := &bundler.Engine{Command: cfg.Bundler.Command, OnDiagnostic: reporter.Diagnostic}
	installer := &deps.NPMInstaller{Command: cfg.Installer.Command}

	compilerOpts := []compiler.Option{
		compiler.WithReporter(reporter),
		compiler.WithBundlerConfig(baseBundlerConfig(cfg)),
	}

	if rev, err := gitmeta.Revision(cfg.Store); err == nil {
		compilerOpts = append(compilerOpts, compiler.WithRevision(rev))
		slog.Debug("Stamping builds with store revision", logfields.Revision(rev))
	} else {
		slog.Debug("Store revision unavailable", logfields.Error(err))
	}

	if cfg.Metrics.Listen != "" {
		recorder := metrics.NewPrometheusRecorder()
		compilerOpts = append(compilerOpts, compiler.WithRecorder(recorder))
		go serveMetrics(cfg.Metrics.Listen, recorder)
	}

	if cfg.Events.URL != "" {
		publisher, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("Build event publishing disabled", logfields.Error(err))
		} else {
			defer publisher.Close()
			compilerOpts = append(compilerOpts, compiler.WithPublisher(publisher))
		}
	}

	opts := compiler.DefaultOptions()
	opts.TranspileOnly = b.TranspileOnly
	opts.Emit = !b.NoEmit
	opts.Output = b.Output
	if opts.Output == "" {
		opts.Output = cfg.Output
	}

	c := compiler.New(st, engine, installer, compilerOpts...)

	ctx := context.Background()
	started := time.Now()

	var diags []bundler.Diagnostic
	if len(names) == 1 {
		diags, err = c.CompileOne(ctx, names[0], opts)
	} else {
		diags, err = c.Compile(ctx, names, opts)
	}

	recordHistory(ctx, cfg, names, started, len(diags), err == nil && len(diags) == 0)

	if err != nil {
		return err
	}
	if len(diags) > 0 {
		return fmt.Errorf("compilation finished with %d problems", len(diags))
	}
	return nil
}

// baseBundlerConfig applies config-file overrides to the engine defaults.
func baseBundlerConfig(cfg *config.Config) bundler.Config {
	base := compiler.DefaultBundlerConfig()
	if len(cfg.Bundler.Extensions) > 0 {
		base.Extensions = cfg.Bundler.Extensions
	}
	return base
}

// recordHistory persists the invocation outcome. Best effort only.
func recordHistory(ctx context.Context, cfg *config.Config, names []string, started time.Time, diagCount int, success bool) {
	if cfg.History.Path == "" {
		return
	}
	if dir := filepath.Dir(cfg.History.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			slog.Warn("Failed to create history directory", logfields.Error(err))
			return
		}
	}
	hs, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("Failed to open history store", logfields.Error(err))
		return
	}
	defer hs.Close()

	entry := history.Entry{
		ID:          uuid.NewString(),
		Presences:   strings.Join(names, ","),
		StartedAt:   started,
		Duration:    time.Since(started),
		Diagnostics: diagCount,
		Success:     success,
	}
	if err := hs.Record(ctx, entry); err != nil {
		slog.Warn("Failed to record invocation history", logfields.Error(err))
	}
}

func serveMetrics(listen string, recorder *metrics.PrometheusRecorder) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	slog.Info("Serving build metrics", slog.String("listen", listen))
	if err := http.ListenAndServe(listen, mux); err != nil {
		slog.Warn("Metrics listener stopped", logfields.Error(err))
	}
}
