package eventstore

import (
	"context"
	"encoding/json"
	"time"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// BuildSummary is the read model of one build.
type BuildSummary struct {
	BuildID        string        `json:"build_id"`
	Status         string        `json:"status"`
	Trigger        string        `json:"trigger,omitempty"`
	Outcome        string        `json:"outcome,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
	Built          int           `json:"built"`
	Skipped        int           `json:"skipped"`
	SourceRevision string        `json:"source_revision,omitempty"`
	ErrorCode      string        `json:"error_code,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// Summarize folds the events of one build into a summary. Events must be in
// insertion order.
func Summarize(buildID string, events []Event) (*BuildSummary, error) {
	s := &BuildSummary{BuildID: buildID, Status: statusRunning}
	for _, e := range events {
		switch e.Type {
		case EventBuildStarted:
			var p BuildStarted
			if err := unmarshal(e, &p); err != nil {
				return nil, err
			}
			s.StartedAt = e.Timestamp
			s.Trigger = p.Trigger
		case EventBuildCompleted:
			var p BuildCompleted
			if err := unmarshal(e, &p); err != nil {
				return nil, err
			}
			s.finish(statusCompleted, e.Timestamp, p.DurationMS)
			s.Outcome = p.Outcome
			s.Built = p.Built
			s.Skipped = p.Skipped
			s.SourceRevision = p.SourceRevision
		case EventBuildFailed:
			var p BuildFailed
			if err := unmarshal(e, &p); err != nil {
				return nil, err
			}
			s.finish(statusFailed, e.Timestamp, p.DurationMS)
			s.Outcome = p.Outcome
			s.ErrorCode = p.Code
			s.ErrorMessage = p.Message
		}
	}
	return s, nil
}

func (s *BuildSummary) finish(status string, at time.Time, durationMS int64) {
	s.Status = status
	t := at
	s.FinishedAt = &t
	s.Duration = time.Duration(durationMS) * time.Millisecond
}

// History returns summaries of the latest limit builds, newest first.
func History(ctx context.Context, store *SQLiteStore, limit int) ([]*BuildSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := store.LatestBuildIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*BuildSummary, 0, len(ids))
	for _, id := range ids {
		events, err := store.GetByBuildID(ctx, id)
		if err != nil {
			return nil, err
		}
		s, err := Summarize(id, events)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func unmarshal(e Event, v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return ferrors.EventStoreError("failed to unmarshal event payload").
			WithCause(err).
			WithContext("build_id", e.BuildID).
			WithContext("event_type", e.Type).
			Build()
	}
	return nil
}
