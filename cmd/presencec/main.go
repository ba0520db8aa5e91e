package main

import (
	"github.com/alecthomas/kong"

	"github.com/presencelabs/presencec/cmd/presencec/commands"
	"github.com/presencelabs/presencec/internal/config"
)

// version is set via -ldflags at release time.
var version = "dev"

func main() {
	// Explicit bootstrap before anything reads configuration; no-op in CI.
	config.BootstrapEnv()

	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("presencec"),
		kong.Description("Compile presence plugin modules into distributable bundles."),
		kong.Vars{"version": version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
