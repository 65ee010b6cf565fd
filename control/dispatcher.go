// Package control connects the SMS protocol to the alarm engine on the elder
// device and to the outbound commands and status texts of both devices.
package control

import (
	"context"
	"fmt"
	"time"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/protocol"
	"github.com/oppamcare/oppam/sms"
	"github.com/oppamcare/oppam/status"
)

type AlarmScheduler interface {
	ScheduleAlarm(ctx context.Context, rec alarm.Record) error
}

type LocationUpdater interface {
	Update(ctx context.Context, loc status.Location) error
}

type PresenceMarker interface {
	MarkSeen(ctx context.Context, phone string) error
}

var _ sms.Handler = (*Dispatcher)(nil)

// Dispatcher applies decoded control messages locally: instant reminders
// ring now, scheduled alarms are stored and armed, locations are cached. Any
// control message counts as a sign of life from its sender.
type Dispatcher struct {
	ringer    alarm.Ringer
	alarms    AlarmScheduler
	locations LocationUpdater
	presence  PresenceMarker
	maxMisses int
	logger    log.Logger
}

type DispatcherOption func(d *Dispatcher)

// WithMaxMisses sets the miss limit given to alarms scheduled by text.
func WithMaxMisses(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxMisses = n
		}
	}
}

func NewDispatcher(ringer alarm.Ringer, alarms AlarmScheduler, locations LocationUpdater, presence PresenceMarker, logger log.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		ringer:    ringer,
		alarms:    alarms,
		locations: locations,
		presence:  presence,
		maxMisses: alarm.DefaultMaxMisses,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) HandleControl(ctx context.Context, from string, msg protocol.Message, _ time.Time) error {
	if d.presence != nil {
		if err := d.presence.MarkSeen(ctx, from); err != nil {
			d.logger.Warn("failed to record presence", "phone", from, "error", err)
		}
	}

	switch m := msg.(type) {
	case protocol.Instant:
		a, err := d.ringer.Ring(ctx, alarm.NoID, m.Text)
		if err != nil {
			return fmt.Errorf("ring instant reminder: %w", err)
		}
		d.logger.Info("instant reminder ringing", "activation_id", a.ID)
		return nil

	case protocol.ScheduleAlarm:
		rec := alarm.Record{
			ID:        m.ID,
			Message:   m.Text,
			Time:      m.Time,
			Status:    alarm.StatusScheduled,
			MaxMisses: d.maxMisses,
		}
		if err := d.alarms.ScheduleAlarm(ctx, rec); err != nil {
			return fmt.Errorf("schedule remote alarm %d: %w", m.ID, err)
		}
		d.logger.Info("remote alarm scheduled", "alarm_id", m.ID, "time", m.Time.Format(time.RFC3339))
		return nil

	case protocol.LocationUpdate:
		loc := status.Location{Lat: m.Lat, Lng: m.Lng, Accuracy: m.Accuracy, Time: m.Time}
		if err := d.locations.Update(ctx, loc); err != nil {
			return fmt.Errorf("update location cache: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported control message %T", msg)
}
