package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/presencelabs/presencec/internal/logfields"
	"github.com/presencelabs/presencec/internal/store"
)

// EphemeralConfigFile is the per-unit build configuration written into a
// presence directory for the duration of its build and removed afterwards.
const EphemeralConfigFile = "tsconfig.json"

type tsconfig struct {
	Extends         string          `json:"extends"`
	CompilerOptions tsconfigOptions `json:"compilerOptions"`
}

type tsconfigOptions struct {
	NoEmit bool `json:"noEmit"`
}

// writeEphemeralConfig writes the unit-scoped build configuration into the
// unit directory. Exactly one such file exists per unit during its build.
func (c *Compiler) writeEphemeralConfig(unit store.Unit, opts Options) (string, error) {
	rel, err := filepath.Rel(unit.Dir, c.store.Root())
	if err != nil {
		rel = filepath.Join("..", "..")
	}

	doc := tsconfig{
		Extends:         filepath.ToSlash(filepath.Join(rel, "tsconfig.json")),
		CompilerOptions: tsconfigOptions{NoEmit: !opts.Emit},
	}
	data, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return "", fmt.Errorf("encode build config: %w", err)
	}

	path := filepath.Join(unit.Dir, EphemeralConfigFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write build config for %s: %w", unit.Name, err)
	}
	slog.Debug("Wrote ephemeral build config", logfields.Presence(unit.Name), logfields.Path(path))
	return path, nil
}

// removeEphemeralConfig deletes a previously written build config. Already
// removed is fine; any other failure is logged and swallowed so cleanup
// never masks the build outcome.
func removeEphemeralConfig(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to remove ephemeral build config", logfields.Path(path), logfields.Error(err))
		return
	}
	slog.Debug("Removed ephemeral build config", logfields.Path(path))
}
