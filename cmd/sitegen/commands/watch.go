package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/daemon"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	PathFlags `embed:""`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, w.overrides())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sb := newSiteBuilder(cfg, g.out())
	defer func() { _ = sb.Close() }()

	// A failing first build is reported but does not stop watching.
	if _, err := sb.run(ctx, TriggerWatch); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	watcher, err := daemon.NewWatcher(func(ctx context.Context) error {
		_, err := sb.run(ctx, TriggerWatch)
		return err
	}, cfg.Daemon.Debounce, cfg.Paths.Posts, cfg.Paths.Templates, cfg.Paths.Assets)
	if err != nil {
		return err
	}
	watcher.IgnoreDir(cfg.Paths.Output)
	watcher.IgnoreDir(cfg.Report.Directory)

	slog.Info("Watching for changes; press Ctrl+C to stop")
	return watcher.Run(ctx)
}
