package bundler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/presencelabs/presencec/internal/logfields"
)

// DefaultCommand is the engine binary invoked when none is configured.
var DefaultCommand = []string{"presence-bundler"}

// Engine invokes the external bundling engine as a subprocess.
//
// Protocol: the invocation document ({"config":…,"entries":…}) is written to
// the engine's stdin; the engine emits one NDJSON event per line on stdout:
// zero or more {"type":"diagnostic",…} events followed by exactly one
// {"type":"result"} event. The engine exits zero even when diagnostics were
// produced; a non-zero exit (or a missing result event) is an invocation
// failure.
type Engine struct {
	// Command is the engine argv. Defaults to DefaultCommand when empty.
	Command []string

	// OnDiagnostic, when set, is called for each diagnostic as it is read
	// from the engine, before the invocation completes. It must not block.
	OnDiagnostic func(Diagnostic)
}

type invocation struct {
	Config  Config  `json:"config"`
	Entries Entries `json:"entries"`
}

type engineEvent struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// Bundle runs the engine in dir and collects its diagnostics.
func (e *Engine) Bundle(ctx context.Context, dir string, cfg Config, entries Entries) (*Result, error) {
	argv := e.Command
	if len(argv) == 0 {
		argv = DefaultCommand
	}

	payload, err := json.Marshal(invocation{Config: cfg, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("encode bundler invocation: %w", err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(payload)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bundler stdout pipe: %w", err)
	}

	slog.Debug("Invoking bundling engine", logfields.Path(dir), logfields.Count(len(entries)))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start bundler %q: %w", argv[0], err)
	}

	var diags []Diagnostic
	sawResult := false
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev engineEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			slog.Debug("Ignoring malformed bundler event", logfields.Error(err))
			continue
		}
		switch ev.Type {
		case "diagnostic":
			d := Diagnostic{Kind: ev.Kind, Message: ev.Message, File: ev.File, Line: ev.Line, Column: ev.Column}
			diags = append(diags, d)
			if e.OnDiagnostic != nil {
				e.OnDiagnostic(d)
			}
		case "result":
			sawResult = true
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("bundler failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if scanErr != nil {
		return nil, fmt.Errorf("read bundler output: %w", scanErr)
	}
	if !sawResult {
		return nil, fmt.Errorf("bundler exited without a result event")
	}

	return &Result{Diagnostics: diags}, nil
}
