package build

import (
	"context"
	"errors"
	"fmt"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/metrics"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/observability"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StageClean     StageName = "clean"
	StageTemplates StageName = "templates"
	StageAssets    StageName = "assets"
	StagePosts     StageName = "posts"
	StageOutputs   StageName = "outputs"
	StageLinks     StageName = "verify_links"
)

// stage is a discrete unit of work in the build.
type stage func(ctx context.Context, bs *buildState) error

type stageDef struct {
	name StageName
	fn   stage
}

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: ferrors.Canceled(string(stage), err)}
}

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Warning  int `json:"warning"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled error. Warnings are recorded and the run continues.
func runStages(ctx context.Context, bs *buildState, defs []stageDef) error {
	for _, st := range defs {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.name, err)
			bs.record(st.name, se)
			return se
		}

		stageCtx := observability.WithStage(ctx, string(st.name))
		observability.DebugContext(stageCtx, "Stage started")
		t0 := bs.now()
		err := st.fn(stageCtx, bs)
		dur := bs.now().Sub(t0)
		bs.report.StageDurations[st.name] = dur
		bs.recorder.ObserveStageDuration(string(st.name), dur)

		if err == nil {
			bs.record(st.name, nil)
			observability.DebugContext(stageCtx, "Stage finished", logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unknown errors are fatal, except a cancellation that surfaced
			// from inside the stage.
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				se = newCanceledStageError(st.name, err)
			} else {
				se = newFatalStageError(st.name, err)
			}
		}
		bs.record(st.name, se)
		if se.Kind == StageErrorWarning {
			observability.WarnContext(stageCtx, "Stage finished with warning", logfields.Error(se.Err))
			continue
		}
		return se
	}
	return nil
}

// record updates report counters and metrics for one stage outcome.
func (bs *buildState) record(name StageName, se *StageError) {
	sc := bs.report.StageCounts[name]
	result := metrics.ResultSuccess
	if se != nil {
		switch se.Kind {
		case StageErrorWarning:
			sc.Warning++
			result = metrics.ResultWarning
			bs.report.Warnings = append(bs.report.Warnings, se)
		case StageErrorCanceled:
			sc.Canceled++
			result = metrics.ResultCanceled
			bs.report.Errors = append(bs.report.Errors, se)
		case StageErrorFatal:
			sc.Fatal++
			result = metrics.ResultFatal
			bs.report.Errors = append(bs.report.Errors, se)
		}
	} else {
		sc.Success++
	}
	bs.report.StageCounts[name] = sc
	bs.recorder.IncStageResult(string(name), result)
}

func asStageError(err error) (*StageError, bool) {
	var se *StageError
	ok := errors.As(err, &se)
	return se, ok
}
