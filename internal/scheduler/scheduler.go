package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-lookup/internal/log"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Scheduler periodically prunes history records older than a maximum age.
type Scheduler struct {
	scheduler *gocron.Scheduler
	history   weather.HistoryStore
	maxAge    time.Duration
	interval  time.Duration
	now       func() time.Time
}

// New creates a new Scheduler. A zero maxAge disables pruning.
func New(history weather.HistoryStore, maxAge, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		history:   history,
		maxAge:    maxAge,
		interval:  interval,
		now:       time.Now,
	}
}

// Start schedules the pruning job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.maxAge <= 0 {
		log.Info("scheduler: history retention disabled; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.Prune(ctx); err != nil {
			log.Errorw("scheduler: prune failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Prune deletes records created more than maxAge ago.
func (s *Scheduler) Prune(ctx context.Context) (int64, error) {
	if s.maxAge <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.maxAge)
	n, err := s.history.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Infow("scheduler: pruned history", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
