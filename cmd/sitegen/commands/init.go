package commands

import (
	"fmt"
	"os"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/templates"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration and starter templates"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	out := g.out()
	_, _ = fmt.Fprintln(out, "Initializing sitegen project")
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		_, _ = fmt.Fprintln(out, "Initialization failed")
		return err
	}

	written, err := templates.WriteStarter(config.DefaultTemplatesDir, config.DefaultAssetsDir, i.Force)
	if err != nil {
		return err
	}
	for _, p := range written {
		_, _ = fmt.Fprintf(out, "Wrote %s\n", p)
	}

	if err := os.MkdirAll(config.DefaultPostsDir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create posts directory").
			WithContext("path", config.DefaultPostsDir).
			Build()
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
