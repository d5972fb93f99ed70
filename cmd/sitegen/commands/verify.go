package commands

import (
	"context"
	"fmt"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/linkverify"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Dir string `arg:"" optional:"" help:"Generated site to check (defaults to paths.output)"`
}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, PathFlags{Output: v.Dir}.overrides())
	if err != nil {
		return err
	}

	verifier, err := linkverify.NewVerifier(cfg.Paths.Output, cfg.Domain)
	if err != nil {
		return err
	}
	res, err := verifier.VerifyTree(context.Background())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read generated site").
			WithContext("path", cfg.Paths.Output).
			Build()
	}

	out := g.out()
	for _, b := range res.Broken {
		_, _ = fmt.Fprintf(out, "broken %s: %s <%s>\n", b.Page, b.Target, b.Tag)
	}
	_, _ = fmt.Fprintf(out, "pages=%d checked=%d external=%d broken=%d\n", res.Pages, res.Checked, res.External, len(res.Broken))

	if !res.OK() {
		return ferrors.NewError(ferrors.CategoryBuild, fmt.Sprintf("%d broken links", len(res.Broken))).
			WithContext("path", cfg.Paths.Output).
			Fatal().
			Build()
	}
	return nil
}
