package config

import (
	"fmt"
	"net/url"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Domain)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("domain", fmt.Sprintf("%q is not an absolute http(s) URL", c.Domain))
	}
	if c.Build.Workers < 0 {
		return invalid("build.workers", "must not be negative")
	}
	if c.Build.FeedLimit < 0 {
		return invalid("build.feed_limit", "must not be negative")
	}
	if c.Notify.Retries < 0 {
		return invalid("notify.retries", "must not be negative")
	}
	if c.Daemon.Debounce < 0 {
		return invalid("daemon.debounce", "must not be negative")
	}
	return nil
}

func invalid(field, reason string) error {
	return ferrors.ConfigError(fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).
		Build()
}
