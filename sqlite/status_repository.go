package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oppamcare/oppam/sms"
	"github.com/oppamcare/oppam/sqlite/sqlc"
	"github.com/oppamcare/oppam/status"
)

var (
	_ status.LocationRepository = (*StatusRepository)(nil)
	_ status.PresenceRepository = (*StatusRepository)(nil)
)

type StatusRepository struct {
	querier sqlc.Querier
}

func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{
		querier: sqlc.New(db),
	}
}

func (s *StatusRepository) SaveLocation(ctx context.Context, loc status.Location) error {
	return s.querier.UpsertLastLocation(ctx, sqlc.UpsertLastLocationParams{
		Lat:      loc.Lat,
		Lng:      loc.Lng,
		Accuracy: float64(loc.Accuracy),
		TimeMs:   toMillis(loc.Time),
	})
}

func (s *StatusRepository) LastLocation(ctx context.Context) (status.Location, error) {
	row, err := s.querier.GetLastLocation(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.Location{}, status.ErrNoLocation
		}
		return status.Location{}, err
	}
	return status.Location{
		Lat:      row.Lat,
		Lng:      row.Lng,
		Accuracy: float32(row.Accuracy),
		Time:     fromMillis(row.TimeMs),
	}, nil
}

func (s *StatusRepository) SavePresence(ctx context.Context, phone string, seenAt time.Time) error {
	return s.querier.UpsertPresence(ctx, sqlc.UpsertPresenceParams{
		Phone:    phone,
		SeenAtMs: toMillis(seenAt),
	})
}

// LastSeen returns the zero time for a number that was never seen.
func (s *StatusRepository) LastSeen(ctx context.Context, phone string) (time.Time, error) {
	ms, err := s.querier.GetPresence(ctx, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return fromMillis(ms), nil
}

var _ sms.Inbox = (*InboxRepository)(nil)

// InboxRepository is the persistent visible inbox for texts that are not
// control messages.
type InboxRepository struct {
	querier sqlc.Querier
}

func NewInboxRepository(db *sql.DB) *InboxRepository {
	return &InboxRepository{
		querier: sqlc.New(db),
	}
}

func (i *InboxRepository) Deliver(ctx context.Context, msg sms.Message) error {
	return i.querier.InsertInboxMessage(ctx, sqlc.InsertInboxMessageParams{
		Sender:       msg.From,
		Body:         msg.Body,
		ReceivedAtMs: toMillis(msg.ReceivedAt),
	})
}

// List returns the newest messages first. A limit <= 0 means no limit.
func (i *InboxRepository) List(ctx context.Context, limit int) ([]sms.Message, error) {
	lim := int64(limit)
	if lim <= 0 {
		lim = -1
	}
	rows, err := i.querier.ListInboxMessages(ctx, lim)
	if err != nil {
		return nil, err
	}
	msgs := make([]sms.Message, len(rows))
	for j, row := range rows {
		msgs[j] = sms.Message{
			From:       row.Sender,
			Body:       row.Body,
			ReceivedAt: fromMillis(row.ReceivedAtMs),
		}
	}
	return msgs, nil
}
