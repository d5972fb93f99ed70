package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendEvent(t *testing.T, store *SQLiteStore, buildID, eventType string, payload any) {
	t.Helper()
	data, err := Marshal(buildID, payload)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), buildID, eventType, data, nil))
}

func TestHistory_NewestFirst(t *testing.T) {
	store := newMemoryStore(t)

	appendEvent(t, store, "b1", EventBuildStarted, BuildStarted{Trigger: "cli"})
	appendEvent(t, store, "b1", EventBuildCompleted, BuildCompleted{Outcome: "success", Built: 3, Skipped: 1, DurationMS: 1500})
	appendEvent(t, store, "b2", EventBuildStarted, BuildStarted{Trigger: "watch"})
	appendEvent(t, store, "b2", EventBuildFailed, BuildFailed{Outcome: "failed", Code: "DuplicateSlug", Message: "slug a"})
	appendEvent(t, store, "b3", EventBuildStarted, BuildStarted{Trigger: "schedule"})

	history, err := History(t.Context(), store, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "b3", history[0].BuildID)
	assert.Equal(t, "running", history[0].Status)
	assert.Nil(t, history[0].FinishedAt)

	assert.Equal(t, "b2", history[1].BuildID)
	assert.Equal(t, "failed", history[1].Status)
	assert.Equal(t, "DuplicateSlug", history[1].ErrorCode)
	assert.Equal(t, "watch", history[1].Trigger)

	assert.Equal(t, "b1", history[2].BuildID)
	assert.Equal(t, "completed", history[2].Status)
	assert.Equal(t, 3, history[2].Built)
	assert.Equal(t, 1, history[2].Skipped)
	assert.Equal(t, 1500*time.Millisecond, history[2].Duration)
	require.NotNil(t, history[2].FinishedAt)
}

func TestHistory_Limit(t *testing.T) {
	store := newMemoryStore(t)
	for _, id := range []string{"b1", "b2", "b3"} {
		appendEvent(t, store, id, EventBuildStarted, BuildStarted{})
	}

	history, err := History(t.Context(), store, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "b3", history[0].BuildID)
	assert.Equal(t, "b2", history[1].BuildID)
}

func TestSummarize_BadPayload(t *testing.T) {
	_, err := Summarize("b1", []Event{{BuildID: "b1", Type: EventBuildCompleted, Payload: []byte("not json")}})
	require.Error(t, err)
}
