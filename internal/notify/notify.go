// Package notify publishes build lifecycle events to interested listeners.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/retry"
)

// Event types.
const (
	EventBuildCompleted = "build.completed"
	EventBuildFailed    = "build.failed"
)

// BuildEvent is the payload published after every build.
type BuildEvent struct {
	Type       string    `json:"type"`
	BuildID    string    `json:"build_id"`
	Trigger    string    `json:"trigger,omitempty"`
	Outcome    string    `json:"outcome"`
	Built      int       `json:"built"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier delivers build events.
type Notifier interface {
	Notify(ctx context.Context, event BuildEvent) error
	Close() error
}

// NoopNotifier drops every event (default when no broker is configured).
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, BuildEvent) error { return nil }
func (NoopNotifier) Close() error                             { return nil }

// NATSNotifier publishes events as JSON on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	policy  retry.Policy
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}

	conn, err := nats.Connect(url,
		nats.Name("sitegen"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS notifier connected", "url", url, "subject", subject)
	return &NATSNotifier{
		conn:    conn,
		subject: subject,
		timeout: 5 * time.Second,
		policy:  retry.NewPolicy(retry.BackoffLinear, 0, 0, 0),
	}, nil
}

// WithRetry sets the backoff policy applied to failed publishes.
func (n *NATSNotifier) WithRetry(p retry.Policy) *NATSNotifier {
	n.policy = p
	return n
}

// Notify publishes event and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, event BuildEvent) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	err = n.policy.Do(ctx, "nats publish", func(ctx context.Context) error {
		if err := n.conn.Publish(n.subject, data); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		flushCtx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		if err := n.conn.FlushWithContext(flushCtx); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("Published build event", "subject", n.subject, "type", event.Type, "build_id", event.BuildID)
	return nil
}

// Close drains and closes the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

// Encode serializes an event, stamping the current time when unset.
func Encode(event BuildEvent) ([]byte, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}
