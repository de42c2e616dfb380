// Package scheduler runs the recurring inventory snapshot export.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bkante/entrepot/internal/service/snapshot"
)

// Scheduler manages the cron-driven snapshot job.
type Scheduler struct {
	cron        *cron.Cron
	snapshotSvc *snapshot.Service
	schedule    string
	logger      *zap.Logger
}

// NewScheduler creates a scheduler exporting snapshots on the given cron
// schedule (standard 5-field expressions).
func NewScheduler(schedule string, snapshotSvc *snapshot.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:        cron.New(),
		snapshotSvc: snapshotSvc,
		schedule:    schedule,
		logger:      logger,
	}
}

// Start registers the snapshot job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.exportSnapshot); err != nil {
		s.logger.Error("failed to schedule snapshot export", zap.Error(err))
		return
	}
	s.cron.Start()
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) exportSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.snapshotSvc.Export(ctx); err != nil {
		s.logger.Error("snapshot export failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled snapshot export completed")
}
