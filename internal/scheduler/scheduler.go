package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

// Aggregator is the part of solar.Service the scheduler drives.
type Aggregator interface {
	FetchAndAggregate(ctx context.Context) (solar.Report, error)
}

// Scheduler periodically runs a full aggregation for the configured locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Aggregator
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. timeout bounds a single run.
func New(interval, timeout time.Duration, service Aggregator, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// A non-positive interval leaves the scheduler idle.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: no interval configured; aggregation runs on request only")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: started", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run() {
	runID := uuid.NewString()
	ctx, cancel := context.WithTimeout(solar.WithRequestID(context.Background(), runID), s.timeout)
	defer cancel()

	s.logger.Info("scheduler: running solar aggregation", "request_id", runID)

	report, err := s.service.FetchAndAggregate(ctx)
	if err != nil {
		s.logger.Error("scheduler: aggregation failed", "request_id", runID, "error", err)
		return
	}

	s.logger.Info("scheduler: completed solar aggregation",
		"request_id", runID,
		"locations", len(report),
		"fallbacks", report.Fallbacks(),
	)
}
