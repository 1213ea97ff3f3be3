package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the sweep on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	manager *Manager
	spec    string
	logger  *slog.Logger

	mu   sync.Mutex
	last *Report
}

// NewScheduler creates a scheduler for the given five-field cron spec.
func NewScheduler(m *Manager, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		manager: m,
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the sweep and starts the cron loop. Runs use ctx, so
// cancelling it aborts an in-flight sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("sweep scheduler started", "schedule", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sweep scheduler stopped")
}

// Last returns the most recent successful report, or nil.
func (s *Scheduler) Last() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.manager.Run(ctx)
	if err != nil {
		s.logger.Warn("scheduled sweep failed", "error", err)
		return
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
}
