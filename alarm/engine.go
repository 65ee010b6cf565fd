package alarm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/metrics"
	"github.com/oppamcare/oppam/ring"
)

type Scheduler interface {
	Schedule(ctx context.Context, id int, message string, at time.Time) error
	Cancel(id int)
}

type Ringer interface {
	Ring(ctx context.Context, alarmID int, message string) (ring.Activation, error)
}

// Notifier delivers status messages to the caregiver. Delivery is best
// effort; implementations log their own failures.
type Notifier interface {
	Confirmed(ctx context.Context, message string, at time.Time)
	NotCompleted(ctx context.Context, message string, at time.Time)
	Escalated(ctx context.Context, message string, misses, maxMisses int)
}

var _ ring.OutcomeHandler = (*Engine)(nil)

// Engine ties the store, the scheduler and the ring cycle together. It turns
// timer expiry into an activation and activation outcomes into status
// changes, caregiver messages and snoozes.
type Engine struct {
	store     *Store
	scheduler Scheduler
	ringer    Ringer
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    log.Logger
}

func NewEngine(store *Store, scheduler Scheduler, notifier Notifier, logger log.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// SetRinger breaks the construction cycle between the engine, which handles
// ring outcomes, and the ring manager, which the engine starts.
func (e *Engine) SetRinger(r Ringer) {
	e.ringer = r
}

// Arm persists nothing; it only registers the timer for an existing record.
func (e *Engine) Arm(ctx context.Context, rec Record) error {
	if err := e.scheduler.Schedule(ctx, rec.ID, rec.Message, rec.Time); err != nil {
		return fmt.Errorf("schedule alarm %d: %w", rec.ID, err)
	}
	return nil
}

// ScheduleAlarm upserts the record and arms its timer, replacing any earlier
// registration for the same id.
func (e *Engine) ScheduleAlarm(ctx context.Context, rec Record) error {
	rec.Status = StatusScheduled
	if err := e.store.Save(ctx, rec); err != nil {
		return err
	}
	return e.Arm(ctx, rec)
}

// Fire is the timer callback. It marks the record triggered and starts the
// ring cycle. A missing record still rings.
func (e *Engine) Fire(ctx context.Context, id int, message string) {
	logger := e.logger.With("alarm_id", id)
	e.metrics.AlarmTriggered()

	if ValidID(id) {
		if err := e.store.UpdateStatus(ctx, id, StatusTriggered); err != nil {
			if errors.Is(err, ErrNotFound) {
				logger.Warn("triggered alarm has no record")
			} else {
				logger.Error("failed to mark alarm triggered", "error", err)
			}
		}
	}

	if e.ringer == nil {
		logger.Error("no ringer configured, dropping alarm")
		return
	}
	if _, err := e.ringer.Ring(ctx, id, message); err != nil {
		logger.Warn("failed to start ring cycle", "error", err)
	}
}

func (e *Engine) HandleOutcome(ctx context.Context, res ring.Result) error {
	e.metrics.RingOutcome(string(res.Outcome))
	switch res.Outcome {
	case ring.OutcomeConfirmed:
		e.setStatus(ctx, res.AlarmID, StatusConfirmed)
		e.notifier.Confirmed(ctx, res.Message, res.At)
		return nil
	case ring.OutcomeNotCompleted:
		e.setStatus(ctx, res.AlarmID, StatusNotCompleted)
		e.notifier.NotCompleted(ctx, res.Message, res.At)
		return e.RescheduleOrEscalate(ctx, res.AlarmID, res.Message)
	case ring.OutcomeNoResponse:
		e.setStatus(ctx, res.AlarmID, StatusNoResponse)
		return e.RescheduleOrEscalate(ctx, res.AlarmID, res.Message)
	}
	return fmt.Errorf("unknown ring outcome %q", res.Outcome)
}

// RescheduleOrEscalate counts a miss, escalates once when the count first
// reaches the record's limit and always snoozes the alarm for SnoozeInterval.
// There is no give up state: the alarm keeps coming back until answered.
func (e *Engine) RescheduleOrEscalate(ctx context.Context, id int, message string) error {
	if !ValidID(id) {
		return nil
	}
	logger := e.logger.With("alarm_id", id)

	rec, err := e.store.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = Record{ID: id, Message: message}
	case err != nil:
		return err
	}
	rec = rec.withDefaults()

	misses, err := e.store.IncrementMissedCount(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		misses = rec.MissedCount + 1
	case err != nil:
		return err
	}

	if prev := misses - 1; prev < rec.MaxMisses && misses >= rec.MaxMisses {
		logger.Warn("alarm escalated", "missed_count", misses, "max_misses", rec.MaxMisses)
		e.metrics.Escalated()
		e.notifier.Escalated(ctx, message, misses, rec.MaxMisses)
	}

	now := e.store.Now()
	if message != "" {
		rec.Message = message
	}
	rec.Time = now.Add(SnoozeInterval)
	rec.MissedCount = misses
	rec.Status = StatusScheduled
	rec.DismissedAt = now

	if err = e.store.Save(ctx, rec); err != nil {
		return err
	}
	if err = e.Arm(ctx, rec); err != nil {
		return err
	}

	logger.Info("alarm snoozed", "next_time", rec.Time.Format(time.RFC3339), "missed_count", misses)
	return nil
}

// Recover re-arms every scheduled record whose time is still ahead. It is run
// once at start up because timers do not outlive the process.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	upcoming, err := e.store.GetUpcoming(ctx)
	if err != nil {
		return 0, err
	}
	var errs []error
	armed := 0
	for _, rec := range upcoming {
		if err = e.Arm(ctx, rec); err != nil {
			errs = append(errs, err)
			continue
		}
		armed++
	}
	e.logger.Info("recovered scheduled alarms", "count", armed)
	return armed, errors.Join(errs...)
}

// Cancel disarms and deletes the record.
func (e *Engine) Cancel(ctx context.Context, id int) error {
	e.scheduler.Cancel(id)
	return e.store.Delete(ctx, id)
}

func (e *Engine) setStatus(ctx context.Context, id int, status Status) {
	if !ValidID(id) {
		return
	}
	if err := e.store.UpdateStatus(ctx, id, status); err != nil && !errors.Is(err, ErrNotFound) {
		e.logger.Error("failed to update alarm status", "alarm_id", id, "status", status, "error", err)
	}
}
