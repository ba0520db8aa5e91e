// Package deps provisions a presence's declared third-party dependencies by
// invoking the package installer as an external process.
package deps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/presencelabs/presencec/internal/logfields"
)

// DefaultCommand is the installer argv used when none is configured.
// Verbose output is suppressed; failures still surface via stderr.
var DefaultCommand = []string{"npm", "install", "--quiet", "--no-audit", "--no-fund"}

// Installer provisions dependencies into a unit directory.
type Installer interface {
	Install(ctx context.Context, dir string) error
}

// NPMInstaller runs the npm CLI scoped to the unit directory. The call is
// synchronous; nothing else proceeds while it runs.
type NPMInstaller struct {
	// Command overrides the installer argv. Defaults to DefaultCommand.
	Command []string
}

// Install runs the installer in dir. A non-zero exit is returned as an
// error carrying the trailing stderr output.
func (n *NPMInstaller) Install(ctx context.Context, dir string) error {
	argv := n.Command
	if len(argv) == 0 {
		argv = DefaultCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = io.Discard

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Debug("Installing presence dependencies", logfields.Path(dir))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("installer %q in %s: %w: %s", argv[0], dir, err, msg)
		}
		return fmt.Errorf("installer %q in %s: %w", argv[0], dir, err)
	}
	return nil
}
