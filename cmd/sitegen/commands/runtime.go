package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/build"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/eventstore"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/metrics"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/notify"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/retry"
)

// Build triggers recorded in reports and history.
const (
	TriggerCLI      = "cli"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// siteBuilder binds a build.Service to its optional metrics, history and
// notification backends.
type siteBuilder struct {
	cfg      *config.Config
	service  *build.Service
	registry *prom.Registry
	closers  []io.Closer
}

// newSiteBuilder wires the backends enabled in cfg. Backends that fail to open
// are logged and skipped.
func newSiteBuilder(cfg *config.Config, stdout io.Writer) *siteBuilder {
	b := &siteBuilder{cfg: cfg, service: build.NewService().WithStdout(stdout)}

	if cfg.Metrics.Textfile != "" {
		b.registry = prom.NewRegistry()
		b.service.WithRecorder(metrics.NewPrometheusRecorder(b.registry))
	}

	if cfg.History.Database != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Database)
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(cfg.History.Database), logfields.Error(err))
		} else {
			b.service.WithHistory(store)
			b.closers = append(b.closers, store)
		}
	}

	if cfg.Notify.NATSURL != "" {
		n, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Build notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			b.service.WithNotifier(n.WithRetry(retry.NewPolicy(retry.BackoffMode(cfg.Notify.Backoff), 0, 0, cfg.Notify.Retries)))
			b.closers = append(b.closers, n)
		}
	}

	return b
}

// run executes one build and refreshes the metrics textfile.
func (b *siteBuilder) run(ctx context.Context, trigger string) (*build.Result, error) {
	res, err := b.service.Run(ctx, build.Request{Config: b.cfg, Trigger: trigger})
	if b.registry != nil {
		if werr := metrics.WriteTextfile(b.cfg.Metrics.Textfile, b.registry); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(b.cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	return res, err
}

// Close releases every opened backend.
func (b *siteBuilder) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
