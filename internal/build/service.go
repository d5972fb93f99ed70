package build

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/eventstore"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/markdown"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/metrics"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/notify"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/observability"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/output"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
)

// Request contains all inputs required to execute a build.
type Request struct {
	// Config is the loaded configuration, overrides already applied.
	Config *config.Config

	// Trigger names what started the build (cli, watch, schedule).
	Trigger string
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result contains the outcome of a build execution.
type Result struct {
	Status     Status
	Report     *Report
	OutputPath string
	Built      int
	Skipped    int
	Duration   time.Duration
}

// History receives build lifecycle events. *eventstore.SQLiteStore satisfies it.
type History interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error
}

// Service runs builds. The zero configuration records nothing beyond logs.
type Service struct {
	recorder metrics.Recorder
	history  History
	notifier notify.Notifier
	now      func() time.Time
	stdout   io.Writer
	renderer *markdown.Renderer
}

// NewService creates a Service with no-op collaborators.
func NewService() *Service {
	return &Service{
		recorder: metrics.NoopRecorder{},
		notifier: notify.NoopNotifier{},
		now:      time.Now,
		stdout:   io.Discard,
		renderer: markdown.NewRenderer(),
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory records build events in h.
func (s *Service) WithHistory(h History) *Service {
	s.history = h
	return s
}

// WithNotifier publishes a build event after every run.
func (s *Service) WithNotifier(n notify.Notifier) *Service {
	if n != nil {
		s.notifier = n
	}
	return s
}

// WithClock replaces time.Now (for testing).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithStdout sets where the summary and skip diagnostics are printed.
func (s *Service) WithStdout(w io.Writer) *Service {
	s.stdout = w
	return s
}

// buildState carries mutable state across stages.
type buildState struct {
	cfg      *config.Config
	report   *Report
	recorder metrics.Recorder
	renderer *markdown.Renderer
	now      func() time.Time

	writer *output.Writer
	posts  []*site.Post
}

// Run executes one complete build: clean the output root, then populate it.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	buildID := observability.NewBuildID()
	ctx = observability.WithBuildID(ctx, buildID)
	if req.Trigger != "" {
		ctx = observability.WithTrigger(ctx, req.Trigger)
	}

	report := newReport(buildID, req.Trigger, start)
	result := &Result{Report: report}

	if req.Config == nil {
		report.End = s.now()
		result.Status = StatusFailed
		s.recorder.IncBuildOutcome(string(OutcomeFailed))
		return result, ferrors.ConfigError("config required").Build()
	}
	cfg := req.Config
	result.OutputPath = cfg.Paths.Output

	observability.InfoContext(ctx, "Build started",
		logfields.Path(cfg.Paths.Output),
		slog.Int("workers", cfg.Workers()))
	s.appendHistory(ctx, buildID, eventstore.EventBuildStarted, eventstore.BuildStarted{
		Trigger: req.Trigger,
		Posts:   cfg.Paths.Posts,
		Output:  cfg.Paths.Output,
		Workers: cfg.Workers(),
	})

	bs := &buildState{
		cfg:      cfg,
		report:   report,
		recorder: s.recorder,
		renderer: s.renderer,
		now:      s.now,
	}
	lc := newLifecycle(s.now)

	err := s.execute(ctx, bs, lc)
	if err != nil {
		lc.fail(ctx)
	}

	report.Transitions = lc.history
	report.End = s.now()
	report.DeriveOutcome()
	if hash, hashErr := report.Manifest.Hash(); hashErr == nil {
		report.ManifestHash = hash
	}

	result.Built = report.Built
	result.Skipped = report.Skipped()
	result.Duration = report.End.Sub(start)
	switch report.Outcome {
	case OutcomeFailed:
		result.Status = StatusFailed
	case OutcomeCanceled:
		result.Status = StatusCanceled
	default:
		result.Status = StatusSuccess
	}

	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(string(report.Outcome))
	s.recorder.AddPostsBuilt(report.Built)

	s.persistReport(ctx, cfg, report)
	s.finishHistory(ctx, report, err)
	s.publish(ctx, report, err)

	if err != nil {
		observability.ErrorContext(ctx, "Build failed",
			logfields.Code(string(ferrors.GetCode(err))),
			logfields.Error(err))
		return result, err
	}

	observability.InfoContext(ctx, "Build completed",
		slog.Int("built", report.Built),
		slog.Int("skipped", report.Skipped()),
		logfields.DurationMS(float64(result.Duration.Milliseconds())),
		slog.String("outcome", string(report.Outcome)))
	if werr := report.WriteSkips(s.stdout); werr != nil {
		slog.Warn("Failed to write build summary", logfields.Error(werr))
	}
	return result, nil
}

func (s *Service) execute(ctx context.Context, bs *buildState, lc *lifecycle) error {
	if err := lc.to(ctx, StateCleaning); err != nil {
		return err
	}
	if err := runStages(ctx, bs, []stageDef{{StageClean, stageClean}}); err != nil {
		return err
	}

	if err := lc.to(ctx, StatePopulating); err != nil {
		return err
	}
	defs := []stageDef{
		{StageTemplates, stageTemplates},
		{StageAssets, stageAssets},
		{StagePosts, stagePosts},
		{StageOutputs, stageOutputs},
	}
	if bs.cfg.Build.VerifyLinks {
		defs = append(defs, stageDef{StageLinks, stageVerifyLinks})
	}
	if err := runStages(ctx, bs, defs); err != nil {
		return err
	}

	return lc.to(ctx, StateDone)
}

func (s *Service) persistReport(ctx context.Context, cfg *config.Config, report *Report) {
	dir := cfg.Report.Directory
	if dir == "" {
		return
	}
	if insideOutput(cfg.Paths.Output, dir) {
		observability.WarnContext(ctx, "Report directory is inside the output root; the next build will remove it",
			logfields.Path(dir))
	}
	if err := report.Persist(dir); err != nil {
		observability.WarnContext(ctx, "Failed to persist build report", logfields.Path(dir), logfields.Error(err))
	}
}

func (s *Service) appendHistory(ctx context.Context, buildID, eventType string, payload any) {
	if s.history == nil {
		return
	}
	data, err := eventstore.Marshal(buildID, payload)
	if err == nil {
		err = s.history.Append(ctx, buildID, eventType, data, nil)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record build event",
			slog.String("event_type", eventType),
			logfields.Error(err))
	}
}

func (s *Service) finishHistory(ctx context.Context, report *Report, buildErr error) {
	dur := report.End.Sub(report.Start).Milliseconds()
	if buildErr != nil {
		s.appendHistory(ctx, report.BuildID, eventstore.EventBuildFailed, eventstore.BuildFailed{
			Outcome:    string(report.Outcome),
			Code:       string(ferrors.GetCode(buildErr)),
			Stage:      failedStage(buildErr),
			Message:    buildErr.Error(),
			DurationMS: dur,
		})
		return
	}
	s.appendHistory(ctx, report.BuildID, eventstore.EventBuildCompleted, eventstore.BuildCompleted{
		Outcome:        string(report.Outcome),
		Built:          report.Built,
		Skipped:        report.Skipped(),
		DurationMS:     dur,
		SourceRevision: report.SourceRevision,
		ManifestHash:   report.ManifestHash,
	})
}

func (s *Service) publish(ctx context.Context, report *Report, buildErr error) {
	event := notify.BuildEvent{
		Type:       notify.EventBuildCompleted,
		BuildID:    report.BuildID,
		Trigger:    report.Trigger,
		Outcome:    string(report.Outcome),
		Built:      report.Built,
		Skipped:    report.Skipped(),
		DurationMS: report.End.Sub(report.Start).Milliseconds(),
		Timestamp:  report.End.UTC(),
	}
	if buildErr != nil {
		event.Type = notify.EventBuildFailed
		event.Error = buildErr.Error()
	}
	// Publish even when the build itself was canceled.
	if err := s.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(err))
	}
}

func failedStage(err error) string {
	if se, ok := asStageError(err); ok {
		return string(se.Stage)
	}
	return ""
}

// insideOutput reports whether p is the output root or below it.
func insideOutput(outputRoot, p string) bool {
	root, err := filepath.Abs(outputRoot)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
