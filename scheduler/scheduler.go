// Package scheduler re-runs the harvest pipeline on a fixed interval for
// long-running deployments. Overlapping runs are not coordinated here;
// the store's observed_at uniqueness makes the overlap harmless.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Rioto3-org/delta-station/pipeline"
	"github.com/Rioto3-org/delta-station/utils"
)

// Scheduler periodically runs the harvest pipeline.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	pipeline   *pipeline.Pipeline
	interval   time.Duration
	runTimeout time.Duration
	logger     *utils.Logger
}

// New creates a Scheduler running the pipeline every interval. Each run
// gets its own context bounded by runTimeout.
func New(p *pipeline.Pipeline, interval, runTimeout time.Duration, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		pipeline:   p,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run fires immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		outcome, err := s.pipeline.Run(ctx)
		if err != nil {
			// next tick is the retry
			s.logger.Error("[scheduler] Run failed: %v", err)
			return
		}
		s.logger.Info("[scheduler] Run complete: %s", outcome)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
