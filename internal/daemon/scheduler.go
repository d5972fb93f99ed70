package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
)

// Scheduler wraps a gocron scheduler for periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start(ctx context.Context) {
	slog.InfoContext(ctx, "Starting scheduler", logfields.Count(len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.InfoContext(ctx, "Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleCron registers fn under a five-field cron expression and returns the job ID.
// A run that is still in progress when the next tick fires causes that tick to be skipped.
func (s *Scheduler) ScheduleCron(name, expr string, fn func()) (string, error) {
	if expr == "" {
		return "", errors.New("cron expression is empty")
	}
	job, err := s.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create cron job %q: %w", name, err)
	}
	slog.Debug("Scheduled cron job", slog.String("name", name), logfields.Schedule(expr))
	return job.ID().String(), nil
}

// ScheduleEvery registers fn to run at a fixed interval and returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, fn func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create interval job %q: %w", name, err)
	}
	slog.Debug("Scheduled interval job", slog.String("name", name), slog.Duration("interval", interval))
	return job.ID().String(), nil
}
