package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

// Default values applied when the configuration leaves a field empty.
const (
	DefaultDomain        = "https://santiiagoleandro-ops.github.io/site-financas-llama"
	DefaultTitle         = "Início"
	DefaultDescription   = "Conteúdo diário sobre finanças e investimentos"
	DefaultPostsDir      = "content/posts"
	DefaultTemplatesDir  = "site/templates"
	DefaultAssetsDir     = "site/static"
	DefaultOutputDir     = "site/output"
	DefaultFeedLimit     = 20
	DefaultNotifySubject = "sitegen.builds"
	DefaultDebounce      = 300 * time.Millisecond
)

// SiteConfig holds the site-wide values passed to every template.
type SiteConfig struct {
	Domain      string            `yaml:"domain"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Language    string            `yaml:"language,omitempty"`
	Analytics   map[string]string `yaml:"analytics,omitempty"`
}

// URL joins the domain with a site-relative path.
func (s SiteConfig) URL(rel string) string {
	return s.Domain + "/" + strings.TrimPrefix(rel, "/")
}

// Config represents the sitegen configuration file.
type Config struct {
	SiteConfig `yaml:",inline"`

	Paths   PathsConfig   `yaml:"paths"`
	Build   BuildConfig   `yaml:"build"`
	Report  ReportConfig  `yaml:"report,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
	Daemon  DaemonConfig  `yaml:"daemon,omitempty"`
}

// PathsConfig locates the build inputs and the output root.
type PathsConfig struct {
	Posts     string `yaml:"posts"`
	Templates string `yaml:"templates"`
	Assets    string `yaml:"assets"`
	Output    string `yaml:"output"`
}

// BuildConfig tunes a single build run.
type BuildConfig struct {
	Workers     int  `yaml:"workers"`
	FeedLimit   int  `yaml:"feed_limit"`
	VerifyLinks bool `yaml:"verify_links"`
}

// ReportConfig controls where the build report is persisted.
type ReportConfig struct {
	Directory string `yaml:"directory"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// HistoryConfig controls the SQLite build history.
type HistoryConfig struct {
	Database string `yaml:"database"`
}

// NotifyConfig controls build event publication.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
	// Retries is the number of extra publish attempts; Backoff is fixed, linear or exponential.
	Retries int    `yaml:"retries,omitempty"`
	Backoff string `yaml:"backoff,omitempty"`
}

// DaemonConfig controls the watch and daemon commands.
type DaemonConfig struct {
	Schedule string        `yaml:"schedule"`
	Debounce time.Duration `yaml:"debounce"`
}

var knownTopLevelKeys = map[string]struct{}{
	"domain": {}, "title": {}, "description": {}, "language": {}, "analytics": {},
	"paths": {}, "build": {}, "report": {}, "metrics": {}, "history": {}, "notify": {}, "daemon": {},
}

// Load reads, expands and validates the configuration at configPath.
// A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithCode(ferrors.CodeConfigInvalid).
			WithContext("path", configPath).
			Fatal().
			Build()
	default:
		if err := decode([]byte(expandEnv(string(data))), &cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
				WithCode(ferrors.CodeConfigInvalid).
				WithContext("path", configPath).
				Fatal().
				Build()
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if _, ok := knownTopLevelKeys[key]; !ok {
			slog.Debug("Ignoring unknown configuration key", "key", key)
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Domain == "" {
		c.Domain = DefaultDomain
	}
	c.Domain = strings.TrimRight(strings.TrimSpace(c.Domain), "/")
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Description == "" {
		c.Description = DefaultDescription
	}
	if c.Paths.Posts == "" {
		c.Paths.Posts = DefaultPostsDir
	}
	if c.Paths.Templates == "" {
		c.Paths.Templates = DefaultTemplatesDir
	}
	if c.Paths.Assets == "" {
		c.Paths.Assets = DefaultAssetsDir
	}
	if c.Paths.Output == "" {
		c.Paths.Output = DefaultOutputDir
	}
	if c.Build.FeedLimit == 0 {
		c.Build.FeedLimit = DefaultFeedLimit
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
	if c.Daemon.Debounce == 0 {
		c.Daemon.Debounce = DefaultDebounce
	}
}

// Workers returns the effective worker pool size.
func (c *Config) Workers() int {
	if c.Build.Workers > 0 {
		return c.Build.Workers
	}
	return runtime.NumCPU()
}

// Overrides carries command-line values that take precedence over the file.
type Overrides struct {
	Posts     string
	Templates string
	Assets    string
	Output    string
	Workers   int
}

// ApplyOverrides copies every non-zero override into the configuration.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Posts != "" {
		c.Paths.Posts = o.Posts
	}
	if o.Templates != "" {
		c.Paths.Templates = o.Templates
	}
	if o.Assets != "" {
		c.Paths.Assets = o.Assets
	}
	if o.Output != "" {
		c.Paths.Output = o.Output
	}
	if o.Workers > 0 {
		c.Build.Workers = o.Workers
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		SiteConfig: SiteConfig{
			Domain:      DefaultDomain,
			Title:       DefaultTitle,
			Description: DefaultDescription,
			Language:    "pt-BR",
			Analytics:   map[string]string{"google": "G-XXXXXXX"},
		},
		Paths: PathsConfig{
			Posts:     DefaultPostsDir,
			Templates: DefaultTemplatesDir,
			Assets:    DefaultAssetsDir,
			Output:    DefaultOutputDir,
		},
		Build: BuildConfig{FeedLimit: DefaultFeedLimit},
		Notify: NotifyConfig{
			Subject: DefaultNotifySubject,
			Retries: 2,
			Backoff: "linear",
		},
		Daemon: DaemonConfig{Debounce: DefaultDebounce},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
