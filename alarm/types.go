package alarm

import (
	"time"
)

const (
	// NoID marks an activation that has no backing record, such as an
	// instant reminder or a debug ring. Store mutations are skipped for it.
	NoID = -1

	DefaultIntervalSeconds = 300
	DefaultMaxMisses       = 3

	// SnoozeInterval is the fixed delay before a missed or declined reminder
	// rings again. The record's IntervalSeconds is persisted but not used here.
	SnoozeInterval = 300 * time.Second
)

type Status string

const (
	StatusScheduled    Status = "scheduled"
	StatusTriggered    Status = "triggered"
	StatusConfirmed    Status = "confirmed"
	StatusNotCompleted Status = "not_completed"
	StatusNoResponse   Status = "no_response"
	StatusMissed       Status = "missed"
	StatusSnoozed      Status = "snoozed"
	StatusDismissed    Status = "dismissed"
	// StatusSent records an alarm this device sent to its counterpart. It is
	// never armed or swept locally; it keeps the id reserved.
	StatusSent Status = "sent"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusTriggered, StatusConfirmed, StatusNotCompleted,
		StatusNoResponse, StatusMissed, StatusSnoozed, StatusDismissed, StatusSent:
		return true
	}
	return false
}

type Record struct {
	ID              int       `json:"id"`
	Message         string    `json:"message"`
	Time            time.Time `json:"time"`
	RepeatDaily     bool      `json:"repeat_daily"`
	IntervalSeconds int       `json:"interval_seconds"`
	MaxMisses       int       `json:"max_misses"`
	MissedCount     int       `json:"missed_count"`
	Status          Status    `json:"status"`
	DismissedAt     time.Time `json:"dismissed_at,omitzero"`
}

// withDefaults fills the zero values a record may carry when it was built by
// an older writer or by a caller that only set id, message and time.
func (r Record) withDefaults() Record {
	if r.IntervalSeconds <= 0 {
		r.IntervalSeconds = DefaultIntervalSeconds
	}
	if r.MaxMisses <= 0 {
		r.MaxMisses = DefaultMaxMisses
	}
	if r.MissedCount < 0 {
		r.MissedCount = 0
	}
	if r.Status == "" {
		r.Status = StatusScheduled
	}
	return r
}

func ValidID(id int) bool {
	return id > 0
}
