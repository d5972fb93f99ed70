package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	PathFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, b.overrides())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sb := newSiteBuilder(cfg, g.out())
	defer func() { _ = sb.Close() }()

	_, err = sb.run(ctx, TriggerCLI)
	return err
}
