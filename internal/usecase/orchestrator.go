package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
)

// Runner executes the ingestion job for one topic and day.
type Runner interface {
	Run(ctx context.Context, topic string, day time.Time) (Report, error)
}

// OrchestratorDeps wires the job and the schedule driver.
type OrchestratorDeps struct {
	Job       Runner
	Topics    []string
	Scheduler ports.Scheduler
	// Notifier, when set, receives a digest after every scheduled run.
	Notifier ports.Notifier
	Location *time.Location
	Logger   *slog.Logger
}

// Orchestrator drives the job over topics and dates, either as a backfill or on
// a daily schedule. Topics and days are processed strictly one at a time.
type Orchestrator struct {
	job       Runner
	topics    []string
	scheduler ports.Scheduler
	notifier  ports.Notifier
	location  *time.Location
	logger    *slog.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		job:       deps.Job,
		topics:    deps.Topics,
		scheduler: deps.Scheduler,
		notifier:  deps.Notifier,
		location:  loc,
		logger:    logger,
	}
}

// RunDay runs the job for every topic on day. A failing topic does not stop the
// others; all topic errors are returned joined.
func (o *Orchestrator) RunDay(ctx context.Context, day time.Time) error {
	_, err := o.runDay(ctx, day)
	return err
}

// guardedRunDay turns a panic raised by one iteration into an error.
func (o *Orchestrator) guardedRunDay(ctx context.Context, day time.Time) (reports []Report, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while running %s: %v", o.truncate(day).Format(time.DateOnly), rec)
		}
	}()
	return o.runDay(ctx, day)
}

func (o *Orchestrator) runDay(ctx context.Context, day time.Time) ([]Report, error) {
	day = o.truncate(day)
	o.logger.Info("job started", "day", day.Format(time.DateOnly), "topics", len(o.topics))

	reports := make([]Report, 0, len(o.topics))
	var errs []error
	for _, topic := range o.topics {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := o.job.Run(ctx, topic, day)
		if err != nil {
			o.logger.Error("topic failed", "topic", topic, "day", day.Format(time.DateOnly), "error", err)
			errs = append(errs, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

// Backfill walks backwards from end. With days set it covers exactly that many
// days (end included) and survives failing days. With days nil it keeps going
// until a day fails, which ends the scan.
func (o *Orchestrator) Backfill(ctx context.Context, end time.Time, days *int) error {
	end = o.truncate(end)

	if days != nil {
		if *days <= 0 {
			return fmt.Errorf("backfill needs a positive day count, got %d", *days)
		}
		for i := 0; i < *days; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			day := end.AddDate(0, 0, -i)
			if _, err := o.guardedRunDay(ctx, day); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				o.logger.Error("backfill day failed", "day", day.Format(time.DateOnly), "error", err)
			}
		}
		return nil
	}

	for day := end; ; day = day.AddDate(0, 0, -1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := o.guardedRunDay(ctx, day)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, domain.ErrNoMoreData) {
			o.logger.Info("backfill reached the oldest available day", "day", day.Format(time.DateOnly), "reason", err)
		} else {
			o.logger.Error("backfill stopped", "day", day.Format(time.DateOnly), "error", err)
		}
		return nil
	}
}

// Maintain hands a daily run to the scheduler and blocks until ctx is done.
func (o *Orchestrator) Maintain(ctx context.Context) error {
	if o.scheduler == nil {
		return fmt.Errorf("scheduler is not configured")
	}

	err := o.scheduler.Run(ctx, o.scheduledRun)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (o *Orchestrator) scheduledRun(ctx context.Context, trigger time.Time) {
	reports, err := o.guardedRunDay(ctx, trigger)
	if err != nil {
		o.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
	}

	if o.notifier == nil || ctx.Err() != nil {
		return
	}
	digest := FormatDigest(o.truncate(trigger), reports)
	if digest == "" {
		return
	}
	if err := o.notifier.PublishDigest(ctx, digest); err != nil {
		o.logger.Warn("publish digest failed", "error", err)
	}
}

func (o *Orchestrator) truncate(t time.Time) time.Time {
	t = t.In(o.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, o.location)
}
