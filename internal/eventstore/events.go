package eventstore

import (
	"encoding/json"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

// Event types written by the build service.
const (
	EventBuildStarted   = "build.started"
	EventBuildCompleted = "build.completed"
	EventBuildFailed    = "build.failed"
)

// BuildStarted is the payload of a build.started event.
type BuildStarted struct {
	Trigger string `json:"trigger,omitempty"`
	Posts   string `json:"posts"`
	Output  string `json:"output"`
	Workers int    `json:"workers"`
}

// BuildCompleted is the payload of a build.completed event.
type BuildCompleted struct {
	Outcome        string `json:"outcome"`
	Built          int    `json:"built"`
	Skipped        int    `json:"skipped"`
	DurationMS     int64  `json:"duration_ms"`
	SourceRevision string `json:"source_revision,omitempty"`
	ManifestHash   string `json:"manifest_hash,omitempty"`
}

// BuildFailed is the payload of a build.failed event.
type BuildFailed struct {
	Outcome    string `json:"outcome"`
	Code       string `json:"code,omitempty"`
	Stage      string `json:"stage,omitempty"`
	Message    string `json:"message"`
	DurationMS int64  `json:"duration_ms"`
}

// Marshal encodes an event payload.
func Marshal(buildID string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, ferrors.EventStoreError("failed to marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return data, nil
}
