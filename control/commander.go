package control

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/protocol"
)

type SyncSender interface {
	SendNow(ctx context.Context, to, body string) error
}

// SentAlarmStore keeps a record of every alarm sent to the elder device, so
// ids stay unique across restarts and separate invocations.
type SentAlarmStore interface {
	Create(ctx context.Context, rec alarm.Record) (alarm.Record, error)
	Save(ctx context.Context, rec alarm.Record) error
}

// Commander is the caregiver side of the protocol: it turns reminders into
// control texts addressed to the elder device.
type Commander struct {
	sender SyncSender
	alarms SentAlarmStore
	phone  string
	clock  clockwork.Clock
	logger log.Logger
}

func NewCommander(sender SyncSender, alarms SentAlarmStore, elderPhone string, clock clockwork.Clock, logger log.Logger) *Commander {
	return &Commander{
		sender: sender,
		alarms: alarms,
		phone:  elderPhone,
		clock:  clock,
		logger: logger,
	}
}

// SendInstant makes the elder device ring now.
func (c *Commander) SendInstant(ctx context.Context, text string) error {
	body, err := protocol.Encode(protocol.Instant{Text: text})
	if err != nil {
		return err
	}
	return c.send(ctx, body)
}

// SendSchedule asks the elder device to ring at the given time. An id < 1 is
// replaced by a freshly allocated one; the id actually sent is returned. The
// alarm is recorded as sent before the text goes out.
func (c *Commander) SendSchedule(ctx context.Context, id int, text string, at time.Time) (protocol.ScheduleAlarm, error) {
	if err := protocol.ValidateAlarmText(text); err != nil {
		return protocol.ScheduleAlarm{}, fmt.Errorf("send alarm: %w", err)
	}
	rec := alarm.Record{ID: id, Message: text, Time: at, Status: alarm.StatusSent}
	if id < 1 {
		var err error
		if rec, err = c.alarms.Create(ctx, rec); err != nil {
			return protocol.ScheduleAlarm{}, fmt.Errorf("allocate alarm id: %w", err)
		}
	} else if err := c.alarms.Save(ctx, rec); err != nil {
		return protocol.ScheduleAlarm{}, fmt.Errorf("record sent alarm %d: %w", id, err)
	}

	msg := protocol.ScheduleAlarm{ID: rec.ID, Time: at, Text: text}
	body, err := protocol.Encode(msg)
	if err != nil {
		return protocol.ScheduleAlarm{}, err
	}
	if err = c.send(ctx, body); err != nil {
		return protocol.ScheduleAlarm{}, err
	}
	c.logger.Info("alarm sent to elder", "alarm_id", rec.ID, "time", at.Format(time.RFC3339))
	return msg, nil
}

// SendDaily schedules the next occurrence of hour:minute in the local zone.
func (c *Commander) SendDaily(ctx context.Context, id int, text string, hour, minute int) (protocol.ScheduleAlarm, error) {
	return c.SendSchedule(ctx, id, text, NextOccurrence(c.clock.Now().In(time.Local), hour, minute))
}

func (c *Commander) send(ctx context.Context, body string) error {
	if strings.TrimSpace(c.phone) == "" {
		return errors.New("send control text: elder phone not configured")
	}
	return c.sender.SendNow(ctx, c.phone, body)
}

// NextOccurrence returns the next time the wall clock in now's zone shows
// hour:minute, today if still ahead and tomorrow otherwise.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// ParseClock parses "HH:MM" in 24 hour form.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("parse time of day %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
