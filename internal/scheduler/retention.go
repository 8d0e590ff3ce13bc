package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger evicts terminal jobs that finished before a cutoff
type Purger interface {
	PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically evicts finished jobs older than the TTL
type RetentionSweeper struct {
	store    Purger
	ttl      time.Duration
	schedule cron.Schedule
	now      func() time.Time
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRetentionSweeper creates a sweeper running on a five-field cron spec
func NewRetentionSweeper(store Purger, ttl time.Duration, spec string) (*RetentionSweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}

	return &RetentionSweeper{
		store:    store,
		ttl:      ttl,
		schedule: schedule,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins the sweep loop. A TTL of 0 disables eviction.
func (s *RetentionSweeper) Start(ctx context.Context) {
	if s.ttl <= 0 {
		slog.Info("Job retention sweeper is disabled by configuration")
		return
	}

	slog.Info("Starting job retention sweeper", "ttl", s.ttl.String())

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the sweeper, waiting for an in-flight sweep up to ctx's deadline
func (s *RetentionSweeper) Stop(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}

	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Job retention sweeper stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for retention sweep to complete")
	}
}

func (s *RetentionSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := s.now()
		timer := time.NewTimer(s.schedule.Next(now).Sub(now))

		select {
		case <-timer.C:
			s.Sweep(ctx)
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Sweep evicts terminal jobs whose finishedAt is older than the TTL
func (s *RetentionSweeper) Sweep(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.ttl)

	purged, err := s.store.PurgeFinishedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to purge finished jobs", "error", err)
		return 0
	}

	if purged > 0 {
		slog.Info("Purged finished jobs", "count", purged, "cutoff", cutoff.Format(time.RFC3339))
	}
	return purged
}
