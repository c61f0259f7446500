package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/clock"
)

// RetentionScheduler periodically deletes journal rows older than the
// retention window.
type RetentionScheduler struct {
	cron      *cron.Cron
	repo      *EventRepository
	clock     clock.Clock
	retention time.Duration
	schedule  string
	logger    *zap.SugaredLogger
}

// NewRetentionScheduler creates a scheduler running on schedule, a cron spec
// with seconds or an @every descriptor.
func NewRetentionScheduler(
	repo *EventRepository,
	retention time.Duration,
	schedule string,
	clk clock.Clock,
	logger *zap.SugaredLogger,
) *RetentionScheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RetentionScheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		repo:      repo,
		clock:     clk,
		retention: retention,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start registers the prune job and starts the cron runner.
func (s *RetentionScheduler) Start() error {
	if s.retention <= 0 {
		s.logger.Infow("journal retention disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Errorw("journal prune failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling journal prune %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Infow("journal retention scheduler started", "schedule", s.schedule, "retention", s.retention)
	return nil
}

// Stop waits for a running prune to finish and stops the scheduler.
func (s *RetentionScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Infow("journal retention scheduler stopped")
}

// RunOnce prunes rows older than the retention window right now.
func (s *RetentionScheduler) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.retention)
	n, err := s.repo.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Infow("pruned journal events", "count", n, "before", cutoff)
	}
	return n, nil
}
