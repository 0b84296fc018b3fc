// Package scheduler runs the service's periodic housekeeping jobs.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron instance with job logging and panic recovery.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))),
		),
		logger: logger,
	}
}

// Every runs job at a fixed interval. Intervals under a second are
// rounded up to one second.
func (s *Scheduler) Every(name string, interval time.Duration, job func()) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %s", name, interval)
	}
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		start := time.Now()
		job()
		s.logger.Debug("job finished",
			slog.String("job", name),
			slog.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return nil
}

// Heartbeat schedules check, logging how many sessions it dropped.
func (s *Scheduler) Heartbeat(interval time.Duration, check func() int) error {
	return s.Every("heartbeat", interval, func() {
		if dropped := check(); dropped > 0 {
			s.logger.Info("dropped idle monitor sessions", slog.Int("count", dropped))
		}
	})
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
