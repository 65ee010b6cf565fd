package control

import (
	"context"
	"fmt"
	"time"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/status"
)

type TextSender interface {
	Send(ctx context.Context, to, body string)
}

type LocationGetter interface {
	Get() (status.Location, bool)
}

var _ alarm.Notifier = (*CaregiverNotifier)(nil)

// CaregiverNotifier texts ring outcomes and escalations to the caregiver as
// plain messages, so they land in the caregiver's normal inbox.
type CaregiverNotifier struct {
	sender    TextSender
	phone     string
	elderName string
	locations LocationGetter
	tz        *time.Location
}

type NotifierOption func(n *CaregiverNotifier)

// WithTimeZone sets the zone reminder times are rendered in.
func WithTimeZone(tz *time.Location) NotifierOption {
	return func(n *CaregiverNotifier) {
		n.tz = tz
	}
}

func NewCaregiverNotifier(sender TextSender, phone, elderName string, locations LocationGetter, opts ...NotifierOption) *CaregiverNotifier {
	n := &CaregiverNotifier{
		sender:    sender,
		phone:     phone,
		elderName: elderName,
		locations: locations,
		tz:        time.Local,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *CaregiverNotifier) Confirmed(ctx context.Context, message string, at time.Time) {
	n.sender.Send(ctx, n.phone, ConfirmedText(n.elderName, message, at.In(n.tz)))
}

func (n *CaregiverNotifier) NotCompleted(ctx context.Context, message string, at time.Time) {
	n.sender.Send(ctx, n.phone, NotCompletedText(n.elderName, message, at.In(n.tz)))
}

func (n *CaregiverNotifier) Escalated(ctx context.Context, message string, misses, maxMisses int) {
	var loc *status.Location
	if n.locations != nil {
		if l, ok := n.locations.Get(); ok {
			loc = &l
		}
	}
	n.sender.Send(ctx, n.phone, EscalationText(n.elderName, message, misses, maxMisses, loc))
}

const clockFormat = "03:04 PM"

func ConfirmedText(elder, message string, at time.Time) string {
	return fmt.Sprintf("✅ %s confirmed: %s (at %s)", elder, message, at.Format(clockFormat))
}

func NotCompletedText(elder, message string, at time.Time) string {
	return fmt.Sprintf("⚠️ %s indicated NOT completed: %s (at %s)", elder, message, at.Format(clockFormat))
}

func EscalationText(elder, message string, misses, maxMisses int, loc *status.Location) string {
	text := fmt.Sprintf("🚨 Escalation: %s missed %d/%d reminders for: %s.", elder, misses, maxMisses, message)
	if loc != nil {
		text += " " + loc.Text()
	}
	return text
}
