package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/pkg/jobs"
)

// DailyScheduler enqueues one dispatch job per day at the configured hour
// in the configured timezone. The job queue owns retries; the scheduler
// only keeps time.
type DailyScheduler struct {
	queue    *jobs.Queue
	hour     int
	location *time.Location
	logger   *zap.Logger
}

// New builds a scheduler targeting the given local hour.
func New(queue *jobs.Queue, hour int, location *time.Location, logger *zap.Logger) *DailyScheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if hour < 0 || hour > 23 {
		hour = 8
	}
	return &DailyScheduler{queue: queue, hour: hour, location: location, logger: logger}
}

// Run blocks until the context is cancelled, firing once per day.
func (s *DailyScheduler) Run(ctx context.Context) {
	s.logger.Sugar().Infow("reminder scheduler started", "hour", s.hour, "timezone", s.location.String())
	for {
		wait := time.Until(s.next(time.Now().In(s.location)))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("reminder scheduler stopped")
			return
		case <-timer.C:
		}

		job := jobs.Job{ID: uuid.NewString(), Type: "reminders.daily_dispatch"}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Error("failed to enqueue daily dispatch", zap.Error(err))
		}
	}
}

// next returns the upcoming occurrence of the dispatch hour.
func (s *DailyScheduler) next(now time.Time) time.Time {
	fire := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.location)
	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}
