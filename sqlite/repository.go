package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/sqlite/sqlc"
)

var _ alarm.Repository = (*AlarmRepository)(nil)

type AlarmRepository struct {
	querier sqlc.Querier
}

func NewAlarmRepository(db *sql.DB) *AlarmRepository {
	return &AlarmRepository{
		querier: sqlc.New(db),
	}
}

func (a *AlarmRepository) UpsertAlarm(ctx context.Context, rec alarm.Record) error {
	return a.querier.UpsertAlarm(ctx, sqlc.UpsertAlarmParams{
		ID:              int64(rec.ID),
		Message:         rec.Message,
		TimeMs:          toMillis(rec.Time),
		RepeatDaily:     boolToInt(rec.RepeatDaily),
		IntervalSeconds: int64(rec.IntervalSeconds),
		MaxMisses:       int64(rec.MaxMisses),
		MissedCount:     int64(rec.MissedCount),
		Status:          string(rec.Status),
		DismissedAtMs:   toMillis(rec.DismissedAt),
	})
}

func (a *AlarmRepository) GetAlarm(ctx context.Context, id int) (alarm.Record, error) {
	row, err := a.querier.GetAlarm(ctx, int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return alarm.Record{}, alarm.ErrNotFound
		}
		return alarm.Record{}, err
	}
	return toRecord(row), nil
}

func (a *AlarmRepository) ListAlarms(ctx context.Context) ([]alarm.Record, error) {
	rows, err := a.querier.ListAlarms(ctx)
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (a *AlarmRepository) ListAlarmsByStatus(ctx context.Context, status alarm.Status) ([]alarm.Record, error) {
	rows, err := a.querier.ListAlarmsByStatus(ctx, string(status))
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (a *AlarmRepository) ListUpcomingAlarms(ctx context.Context, now time.Time) ([]alarm.Record, error) {
	rows, err := a.querier.ListUpcomingAlarms(ctx, now.UnixMilli())
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (a *AlarmRepository) DeleteAlarm(ctx context.Context, id int) error {
	return a.querier.DeleteAlarm(ctx, int64(id))
}

func (a *AlarmRepository) MaxAlarmID(ctx context.Context) (int, error) {
	id, err := a.querier.MaxAlarmID(ctx)
	return int(id), err
}

func (a *AlarmRepository) UpdateAlarmStatus(ctx context.Context, id int, status alarm.Status, at time.Time) error {
	n, err := a.querier.UpdateAlarmStatus(ctx, sqlc.UpdateAlarmStatusParams{
		Status:        string(status),
		DismissedAtMs: toMillis(at),
		ID:            int64(id),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return alarm.ErrNotFound
	}
	return nil
}

func (a *AlarmRepository) IncrementMissedCount(ctx context.Context, id int) (int, error) {
	n, err := a.querier.IncrementMissedCount(ctx, int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, alarm.ErrNotFound
		}
		return 0, err
	}
	return int(n), nil
}

func (a *AlarmRepository) MarkMissedAlarms(ctx context.Context, now time.Time) (int, error) {
	n, err := a.querier.MarkMissedAlarms(ctx, now.UnixMilli())
	return int(n), err
}

func toRecords(rows []sqlc.Alarm) []alarm.Record {
	recs := make([]alarm.Record, len(rows))
	for i, row := range rows {
		recs[i] = toRecord(row)
	}
	return recs
}

func toRecord(row sqlc.Alarm) alarm.Record {
	return alarm.Record{
		ID:              int(row.ID),
		Message:         row.Message,
		Time:            fromMillis(row.TimeMs),
		RepeatDaily:     row.RepeatDaily != 0,
		IntervalSeconds: int(row.IntervalSeconds),
		MaxMisses:       int(row.MaxMisses),
		MissedCount:     int(row.MissedCount),
		Status:          alarm.Status(row.Status),
		DismissedAt:     fromMillis(row.DismissedAtMs),
	}
}

// Times are stored as UTC epoch millis; zero means unset.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
