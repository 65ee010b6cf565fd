package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/sms"
	"github.com/oppamcare/oppam/sqlite/migrations"
	"github.com/oppamcare/oppam/status"
)

func TestAlarmRepository_UpsertGetAlarm(t *testing.T) {
	ctx := t.Context()
	repo := NewAlarmRepository(newDB(t, ctx))

	rec := alarm.Record{
		ID:              9,
		Message:         "Take BP tablet",
		Time:            time.UnixMilli(1700000000000).UTC(),
		RepeatDaily:     true,
		IntervalSeconds: 300,
		MaxMisses:       3,
		Status:          alarm.StatusScheduled,
	}
	require.NoError(t, repo.UpsertAlarm(ctx, rec))

	got, err := repo.GetAlarm(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// upsert replaces
	rec.Message = "Take BP tablet after food"
	rec.MissedCount = 2
	require.NoError(t, repo.UpsertAlarm(ctx, rec))
	got, err = repo.GetAlarm(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	all, err := repo.ListAlarms(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.GetAlarm(ctx, 404)
	require.ErrorIs(t, err, alarm.ErrNotFound)
}

func TestAlarmRepository_MaxAlarmID(t *testing.T) {
	ctx := t.Context()
	repo := NewAlarmRepository(newDB(t, ctx))

	id, err := repo.MaxAlarmID(ctx)
	require.NoError(t, err)
	assert.Zero(t, id)

	for _, id := range []int{3, 11, 7} {
		require.NoError(t, repo.UpsertAlarm(ctx, alarm.Record{ID: id, Message: "m", Status: alarm.StatusScheduled}))
	}
	id, err = repo.MaxAlarmID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, id)

	require.NoError(t, repo.DeleteAlarm(ctx, 11))
	id, err = repo.MaxAlarmID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestAlarmRepository_StatusTransitions(t *testing.T) {
	ctx := t.Context()
	repo := NewAlarmRepository(newDB(t, ctx))
	now := time.UnixMilli(1700000000000).UTC()

	require.NoError(t, repo.UpsertAlarm(ctx, alarm.Record{ID: 1, Message: "a", Time: now, Status: alarm.StatusScheduled}))

	at := now.Add(time.Minute)
	require.NoError(t, repo.UpdateAlarmStatus(ctx, 1, alarm.StatusConfirmed, at))
	got, err := repo.GetAlarm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, alarm.StatusConfirmed, got.Status)
	assert.Equal(t, at, got.DismissedAt)

	byStatus, err := repo.ListAlarmsByStatus(ctx, alarm.StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, 1, byStatus[0].ID)

	err = repo.UpdateAlarmStatus(ctx, 2, alarm.StatusConfirmed, at)
	require.ErrorIs(t, err, alarm.ErrNotFound)

	for want := 1; want <= 3; want++ {
		n, err := repo.IncrementMissedCount(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	_, err = repo.IncrementMissedCount(ctx, 2)
	require.ErrorIs(t, err, alarm.ErrNotFound)
}

func TestAlarmRepository_UpcomingAndMissed(t *testing.T) {
	ctx := t.Context()
	repo := NewAlarmRepository(newDB(t, ctx))
	now := time.UnixMilli(1700000000000).UTC()

	recs := []alarm.Record{
		{ID: 1, Message: "past", Time: now.Add(-time.Hour), Status: alarm.StatusScheduled},
		{ID: 2, Message: "later", Time: now.Add(2 * time.Hour), Status: alarm.StatusScheduled},
		{ID: 3, Message: "soon", Time: now.Add(time.Hour), Status: alarm.StatusScheduled},
		{ID: 4, Message: "done", Time: now.Add(-time.Hour), Status: alarm.StatusConfirmed},
	}
	for _, rec := range recs {
		require.NoError(t, repo.UpsertAlarm(ctx, rec))
	}

	upcoming, err := repo.ListUpcomingAlarms(ctx, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, 3, upcoming[0].ID)
	assert.Equal(t, 2, upcoming[1].ID)

	n, err := repo.MarkMissedAlarms(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.MarkMissedAlarms(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.GetAlarm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, alarm.StatusMissed, got.Status)
}

func TestStatusRepository_Location(t *testing.T) {
	ctx := t.Context()
	repo := NewStatusRepository(newDB(t, ctx))

	_, err := repo.LastLocation(ctx)
	require.ErrorIs(t, err, status.ErrNoLocation)

	first := status.Location{Lat: 9.9312, Lng: 76.2673, Accuracy: 12.5, Time: time.UnixMilli(1700000000000).UTC()}
	second := status.Location{Lat: 10.1, Lng: 76.3, Accuracy: 8, Time: time.UnixMilli(1700000060000).UTC()}
	require.NoError(t, repo.SaveLocation(ctx, first))
	require.NoError(t, repo.SaveLocation(ctx, second))

	got, err := repo.LastLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestStatusRepository_Presence(t *testing.T) {
	ctx := t.Context()
	repo := NewStatusRepository(newDB(t, ctx))
	phone := "+919800000001"

	seen, err := repo.LastSeen(ctx, phone)
	require.NoError(t, err)
	assert.True(t, seen.IsZero())

	t1 := time.UnixMilli(1700000000000).UTC()
	require.NoError(t, repo.SavePresence(ctx, phone, t1))
	// an older sighting never moves last seen backwards
	require.NoError(t, repo.SavePresence(ctx, phone, t1.Add(-time.Hour)))

	seen, err = repo.LastSeen(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, t1, seen)
}

func TestInboxRepository(t *testing.T) {
	ctx := t.Context()
	repo := NewInboxRepository(newDB(t, ctx))
	base := time.UnixMilli(1700000000000).UTC()

	var saved []sms.Message
	for i := range 4 {
		msg := sms.Message{From: "+919800000002", Body: "hello", ReceivedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, repo.Deliver(ctx, msg))
		saved = append(saved, msg)
	}

	got, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []sms.Message{saved[3], saved[2]}, got)

	got, err = repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := t.Context()
	store := alarm.NewStore(NewAlarmRepository(newDB(t, ctx)))

	a, err := store.Create(ctx, alarm.Record{Message: "first", Time: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	b, err := store.Create(ctx, alarm.Record{Message: "second", Time: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
	assert.Equal(t, alarm.DefaultMaxMisses, b.MaxMisses)
}

func newDB(t *testing.T, ctx context.Context) *sql.DB {
	db, err := Open(ctx, WithDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	require.NoError(t, Migrate(db, migrations.FS()))
	return db
}
