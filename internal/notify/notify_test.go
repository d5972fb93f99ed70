package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	require.NoError(t, n.Notify(context.Background(), BuildEvent{Type: EventBuildCompleted}))
	require.NoError(t, n.Close())
}

func TestEncode_StampsTimestamp(t *testing.T) {
	data, err := Encode(BuildEvent{Type: EventBuildFailed, BuildID: "b1", Outcome: "failed", Error: "boom"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "build.failed", decoded["type"])
	assert.Equal(t, "b1", decoded["build_id"])
	assert.Equal(t, "boom", decoded["error"])
	assert.NotEmpty(t, decoded["timestamp"])
	assert.NotContains(t, decoded, "trigger")
}

func TestEncode_KeepsGivenTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	data, err := Encode(BuildEvent{Type: EventBuildCompleted, Timestamp: ts})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":"2024-01-05T10:00:00Z"`)
}

func TestNewNATSNotifier_Validation(t *testing.T) {
	_, err := NewNATSNotifier("", "sitegen.builds")
	require.Error(t, err)

	_, err = NewNATSNotifier("nats://127.0.0.1:4222", "")
	require.Error(t, err)
}

func TestNewNATSNotifier_Unreachable(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "sitegen.builds")
	require.Error(t, err)
}
