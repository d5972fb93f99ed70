package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/eventstore"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of builds to show" default:"10"`
	JSON  bool `help:"Print summaries as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, config.Overrides{})
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return ferrors.ConfigError("history.database is not configured").
			Build()
	}

	store, err := eventstore.NewSQLiteStore(cfg.History.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := eventstore.History(context.Background(), store, h.Limit)
	if err != nil {
		return err
	}

	out := g.out()
	if h.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tOUTCOME\tBUILT\tSKIPPED\tDURATION\tTRIGGER")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			b.BuildID,
			b.StartedAt.Local().Format(time.DateTime),
			b.Status,
			dash(b.Outcome),
			b.Built,
			b.Skipped,
			b.Duration.Round(time.Millisecond),
			dash(b.Trigger))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
