package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// BootstrapEnv loads .env into the process environment. Called exactly once
// at process start, before configuration is loaded, so PRESENCEC_* overrides
// from .env take effect. Skipped entirely inside CI, where the environment
// is provisioned by the pipeline. Existing variables are never overwritten.
func BootstrapEnv() {
	if os.Getenv("CI") != "" {
		return
	}
	if err := godotenv.Load(); err != nil {
		// No .env file is the common case.
		return
	}
	slog.Debug("Loaded environment variables from .env")
}
