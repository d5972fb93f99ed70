package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/daemon"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	PathFlags `embed:""`

	Schedule string `help:"Cron expression for rebuilds (overrides daemon.schedule)"`
	Now      bool   `help:"Build once immediately before waiting for the schedule" default:"true" negatable:""`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, d.overrides())
	if err != nil {
		return err
	}
	expr := cfg.Daemon.Schedule
	if d.Schedule != "" {
		expr = d.Schedule
	}
	if expr == "" {
		return ferrors.ConfigError("daemon requires a schedule (daemon.schedule or --schedule)").
			Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sb := newSiteBuilder(cfg, g.out())
	defer func() { _ = sb.Close() }()

	return runDaemon(ctx, sb, expr, d.Now)
}

// runDaemon schedules sb on expr and blocks until ctx is done.
func runDaemon(ctx context.Context, sb *siteBuilder, expr string, buildNow bool) error {
	scheduler, err := daemon.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := scheduler.ScheduleCron("rebuild", expr, func() {
		if _, err := sb.run(ctx, TriggerSchedule); err != nil {
			slog.Error("Scheduled build failed", logfields.Error(err))
		}
	}); err != nil {
		_ = scheduler.Stop(ctx)
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid schedule").
			WithCode(ferrors.CodeConfigInvalid).
			WithContext("schedule", expr).
			Build()
	}

	if buildNow {
		if _, err := sb.run(ctx, TriggerSchedule); err != nil {
			slog.Error("Initial build failed", logfields.Error(err))
		}
	}

	scheduler.Start(ctx)
	slog.Info("Daemon started, waiting for shutdown signal...", logfields.Schedule(expr))
	<-ctx.Done()

	slog.Info("Shutdown signal received, stopping daemon...")
	return scheduler.Stop(context.Background())
}
