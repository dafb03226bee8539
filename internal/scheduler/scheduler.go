package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/config"
	"github.com/mamadbah2/newsletter/pkg/metrics"
)

// Sweeper removes stale staged uploads.
type Sweeper interface {
	Sweep(olderThan time.Duration) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	cfg     config.UploadsConfig
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.UploadsConfig, sweeper Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard 5-field cron expressions (min, hour, dom, month, dow).
	c := cron.New()

	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("sweep_schedule", s.cfg.SweepSchedule))

	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweepUploads); err != nil {
		return fmt.Errorf("schedule upload sweep %q: %w", s.cfg.SweepSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepUploads() {
	removed, err := s.sweeper.Sweep(s.cfg.MaxAge)
	if err != nil {
		s.logger.Error("failed to sweep staged uploads", zap.Error(err))
		return
	}

	metrics.StagedFilesSwept.Add(float64(removed))
	if removed > 0 {
		s.logger.Info("stale uploads removed", zap.Int("count", removed))
	}
}
