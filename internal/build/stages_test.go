package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/metrics"
)

func newTestState() *buildState {
	return &buildState{
		report:   newReport("id", "", fixedNow),
		recorder: metrics.NoopRecorder{},
		now:      func() time.Time { return fixedNow },
	}
}

func TestRunStages_WarningContinues(t *testing.T) {
	bs := newTestState()
	var ran []StageName
	defs := []stageDef{
		{StageAssets, func(context.Context, *buildState) error {
			ran = append(ran, StageAssets)
			return newWarnStageError(StageAssets, errors.New("missing"))
		}},
		{StagePosts, func(context.Context, *buildState) error {
			ran = append(ran, StagePosts)
			return nil
		}},
	}

	require.NoError(t, runStages(context.Background(), bs, defs))
	assert.Equal(t, []StageName{StageAssets, StagePosts}, ran)
	assert.Len(t, bs.report.Warnings, 1)
	assert.Equal(t, StageCount{Warning: 1}, bs.report.StageCounts[StageAssets])
	assert.Equal(t, StageCount{Success: 1}, bs.report.StageCounts[StagePosts])
}

func TestRunStages_FatalStops(t *testing.T) {
	bs := newTestState()
	called := false
	defs := []stageDef{
		{StageTemplates, func(context.Context, *buildState) error { return errors.New("plain error") }},
		{StagePosts, func(context.Context, *buildState) error { called = true; return nil }},
	}

	err := runStages(context.Background(), bs, defs)
	require.Error(t, err)
	assert.False(t, called)
	se := mustStageError(t, err)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageTemplates, se.Stage)
	assert.Equal(t, StageCount{Fatal: 1}, bs.report.StageCounts[StageTemplates])
}

func TestRunStages_CancellationInsideStage(t *testing.T) {
	bs := newTestState()
	ctx, cancel := context.WithCancel(context.Background())
	defs := []stageDef{
		{StagePosts, func(ctx context.Context, _ *buildState) error {
			cancel()
			return ctx.Err()
		}},
	}

	err := runStages(ctx, bs, defs)
	require.Error(t, err)
	assert.Equal(t, StageErrorCanceled, mustStageError(t, err).Kind)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeCanceled))
	assert.ErrorIs(t, err, context.Canceled)
}
