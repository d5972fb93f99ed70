package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
)

// LogLevelEnv overrides the log level selected by --verbose.
const LogLevelEnv = "SITEGEN_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	// Stdout receives user-facing output. Nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitegen.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Build the site from Markdown posts (default command)"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration and starter templates"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever posts, templates or assets change"`
	Daemon  DaemonCmd  `cmd:"" help:"Rebuild on a cron schedule until interrupted"`
	Verify  VerifyCmd  `cmd:"" help:"Check internal links of a generated site"`
	History HistoryCmd `cmd:"" help:"List recent builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours SITEGEN_LOG_LEVEL first, then the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// PathFlags override the configured directories.
type PathFlags struct {
	Posts     string `help:"Directory of Markdown posts (overrides paths.posts)"`
	Templates string `help:"Template directory (overrides paths.templates)"`
	Assets    string `help:"Static asset directory (overrides paths.assets)"`
	Output    string `short:"o" help:"Output directory (overrides paths.output)"`
	Workers   int    `short:"w" help:"Parallel post workers (overrides build.workers)"`
}

func (p PathFlags) overrides() config.Overrides {
	return config.Overrides{
		Posts:     p.Posts,
		Templates: p.Templates,
		Assets:    p.Assets,
		Output:    p.Output,
		Workers:   p.Workers,
	}
}

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(path string, o config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
