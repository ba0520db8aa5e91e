// Package report is the user-facing reporting sink: friendly console lines
// plus CI annotations for diagnostics. Reporting is fire-and-forget and
// never influences control flow or return values.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/presencelabs/presencec/internal/bundler"
	"github.com/presencelabs/presencec/internal/logfields"
)

// Reporter receives informational, success and error messages plus
// individual diagnostics as they are produced.
type Reporter interface {
	Infof(format string, args ...any)
	Successf(format string, args ...any)
	Errorf(format string, args ...any)
	Diagnostic(d bundler.Diagnostic)
}

// Console reports to stdout (friendly lines) and slog (structured). When CI
// is set, diagnostics are additionally emitted as workflow error commands so
// the CI system can annotate the offending source location.
type Console struct {
	// Out receives friendly lines and CI annotations. Defaults to os.Stdout.
	Out io.Writer

	// CI enables ::error workflow-command annotations for diagnostics.
	CI bool
}

func (c *Console) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.out(), format+"\n", args...)
}

func (c *Console) Successf(format string, args ...any) {
	fmt.Fprintf(c.out(), format+"\n", args...)
}

func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintf(c.out(), format+"\n", args...)
	slog.Error(fmt.Sprintf(format, args...))
}

func (c *Console) Diagnostic(d bundler.Diagnostic) {
	slog.Error("Compilation problem",
		logfields.Kind(d.Kind),
		logfields.File(d.File),
		logfields.Line(d.Line),
		logfields.Column(d.Column),
		slog.String("message", d.Message))
	if c.CI {
		fmt.Fprintf(c.out(), "::error file=%s,line=%d,col=%d::%s\n", d.File, d.Line, d.Column, d.Message)
	}
}

// Nop discards everything. Useful default for tests and library callers.
type Nop struct{}

func (Nop) Infof(string, ...any)          {}
func (Nop) Successf(string, ...any)       {}
func (Nop) Errorf(string, ...any)         {}
func (Nop) Diagnostic(bundler.Diagnostic) {}
