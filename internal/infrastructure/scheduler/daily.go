package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsTracker/internal/ports"
)

// DailyScheduler fires once a day at a fixed wall-clock time. It wakes on a
// coarse poll interval rather than sleeping until the exact trigger, so firing
// is accurate to roughly one interval.
type DailyScheduler struct {
	hour     int
	minute   int
	location *time.Location
	poll     time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses at as "HH:MM" in loc. poll defaults to one minute.
func NewDailyScheduler(at string, loc *time.Location, poll time.Duration, logger *slog.Logger) (*DailyScheduler, error) {
	clock, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("parse trigger time %q: %w", at, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if poll <= 0 {
		poll = time.Minute
	}
	return &DailyScheduler{
		hour:     clock.Hour(),
		minute:   clock.Minute(),
		location: loc,
		poll:     poll,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// WithClock replaces the time source.
func (s *DailyScheduler) WithClock(now func() time.Time) *DailyScheduler {
	s.now = now
	return s
}

// Next returns the first trigger strictly after t.
func (s *DailyScheduler) Next(t time.Time) time.Time {
	t = t.In(s.location)
	next := time.Date(t.Year(), t.Month(), t.Day(), s.hour, s.minute, 0, 0, s.location)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, invoking job once per day, until ctx is cancelled. The job gets the
// registered trigger, not the poll time that noticed it. job runs on the calling
// goroutine, so a slow run delays the next poll rather than overlapping it.
func (s *DailyScheduler) Run(ctx context.Context, job func(ctx context.Context, trigger time.Time)) error {
	if job == nil {
		return fmt.Errorf("scheduler job is nil")
	}

	next := s.Next(s.now())
	s.info("schedule registered", "next_run", next)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.info("schedule stopped")
			return ctx.Err()
		case <-ticker.C:
			now := s.now()
			if now.Before(next) {
				continue
			}
			job(ctx, next)
			next = s.Next(s.now())
			s.info("next run scheduled", "next_run", next)
		}
	}
}

func (s *DailyScheduler) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
