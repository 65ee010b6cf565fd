package alarm

//go:generate go tool moq -out repository_moq_test.go . Repository

import (
	"context"
	"time"
)

const ErrNotFound repoErr = "not found"

type repoErr string

func (e repoErr) Error() string { return string(e) }

// Repository persists alarm records. Every method is atomic on its own; the
// read-modify-write methods (UpdateAlarmStatus, IncrementMissedCount,
// MarkMissedAlarms) must not be implemented as a read of the whole collection
// followed by a write of the whole collection.
type Repository interface {
	UpsertAlarm(ctx context.Context, rec Record) error
	GetAlarm(ctx context.Context, id int) (Record, error)
	ListAlarms(ctx context.Context) ([]Record, error)
	ListAlarmsByStatus(ctx context.Context, status Status) ([]Record, error)
	ListUpcomingAlarms(ctx context.Context, now time.Time) ([]Record, error)
	DeleteAlarm(ctx context.Context, id int) error
	MaxAlarmID(ctx context.Context) (int, error)
	UpdateAlarmStatus(ctx context.Context, id int, status Status, at time.Time) error
	IncrementMissedCount(ctx context.Context, id int) (int, error)
	MarkMissedAlarms(ctx context.Context, now time.Time) (int, error)
}
