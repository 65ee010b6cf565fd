package schedule

import (
	"errors"
	"time"

	"github.com/oppamcare/oppam/log"
)

var ErrPermissionDenied = errors.New("permission denied")

type Tier string

const (
	TierAlarmClock  Tier = "alarm-clock"
	TierExactIdle   Tier = "exact-idle"
	TierInexactIdle Tier = "inexact-idle"
)

type Registration struct {
	ID      int       `json:"id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
	FireAt  time.Time `json:"fire_at"`
	Tier    Tier      `json:"tier"`
}

// Facility is one way of getting a timed wake up. Arm returns when the timer
// should actually fire, or ErrPermissionDenied when the facility may not be
// used right now.
type Facility interface {
	Tier() Tier
	Arm(reg Registration) (time.Time, error)
	Disarm(reg Registration)
}

type Permissions interface {
	CanScheduleAlarmClock() bool
	CanScheduleExact() bool
}

type StaticPermissions struct {
	AlarmClock bool
	Exact      bool
}

func (p StaticPermissions) CanScheduleAlarmClock() bool { return p.AlarmClock }
func (p StaticPermissions) CanScheduleExact() bool      { return p.Exact }

// Notice is the user visible side of scheduling.
type Notice interface {
	ShowPending(reg Registration)
	ClearPending(reg Registration)
	PromptExactPermission()
}

// AlarmClockFacility fires exactly and shows a pending alarm to the user
// while armed.
type AlarmClockFacility struct {
	perms  Permissions
	notice Notice
}

func NewAlarmClockFacility(perms Permissions, notice Notice) *AlarmClockFacility {
	return &AlarmClockFacility{perms: perms, notice: notice}
}

func (f *AlarmClockFacility) Tier() Tier { return TierAlarmClock }

func (f *AlarmClockFacility) Arm(reg Registration) (time.Time, error) {
	if !f.perms.CanScheduleAlarmClock() {
		return time.Time{}, ErrPermissionDenied
	}
	f.notice.ShowPending(reg)
	return reg.At, nil
}

func (f *AlarmClockFacility) Disarm(reg Registration) {
	f.notice.ClearPending(reg)
}

// ExactIdleFacility fires exactly, even while the device idles.
type ExactIdleFacility struct {
	perms Permissions
}

func NewExactIdleFacility(perms Permissions) *ExactIdleFacility {
	return &ExactIdleFacility{perms: perms}
}

func (f *ExactIdleFacility) Tier() Tier { return TierExactIdle }

func (f *ExactIdleFacility) Arm(reg Registration) (time.Time, error) {
	if !f.perms.CanScheduleExact() {
		return time.Time{}, ErrPermissionDenied
	}
	return reg.At, nil
}

func (f *ExactIdleFacility) Disarm(Registration) {}

// InexactIdleFacility is always available but batches wake ups: the timer
// fires at the first window boundary at or after the requested time.
type InexactIdleFacility struct {
	window time.Duration
}

func NewInexactIdleFacility(window time.Duration) *InexactIdleFacility {
	return &InexactIdleFacility{window: window}
}

func (f *InexactIdleFacility) Tier() Tier { return TierInexactIdle }

func (f *InexactIdleFacility) Arm(reg Registration) (time.Time, error) {
	if f.window <= 0 {
		return reg.At, nil
	}
	fireAt := reg.At.Truncate(f.window)
	if fireAt.Before(reg.At) {
		fireAt = fireAt.Add(f.window)
	}
	return fireAt, nil
}

func (f *InexactIdleFacility) Disarm(Registration) {}

// LogNotice reports scheduling notices through the logger.
type LogNotice struct {
	logger log.Logger
}

func NewLogNotice(logger log.Logger) *LogNotice {
	return &LogNotice{logger: logger}
}

func (n *LogNotice) ShowPending(reg Registration) {
	n.logger.Info("alarm pending", "alarm_id", reg.ID, "at", reg.At.Format(time.RFC3339))
}

func (n *LogNotice) ClearPending(reg Registration) {
	n.logger.Debug("alarm no longer pending", "alarm_id", reg.ID)
}

func (n *LogNotice) PromptExactPermission() {
	n.logger.Warn("exact alarm permission is not granted, reminders may ring late; grant it in the device settings")
}
