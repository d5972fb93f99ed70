package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/santiiagoleandro-ops/site-financas-llama/cmd/sitegen/commands"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitegen"),
		kong.Description("Build a static blog from Markdown posts with YAML front matter."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{}, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
