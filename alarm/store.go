package alarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Store is the single writer in front of a Repository. Every mutation takes
// the store lock so that id allocation, upserts and status transitions from
// the scheduler, the ring cycle, the SMS receiver and the sweeper are
// serialized.
type Store struct {
	mu     sync.Mutex
	repo   Repository
	clock  clockwork.Clock
	lastID int
}

type StoreOption func(s *Store)

func WithClock(clock clockwork.Clock) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

func NewStore(repo Repository, opts ...StoreOption) *Store {
	s := &Store{
		repo:  repo,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Save inserts or replaces the record with the same id.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if !ValidID(rec.ID) {
		return fmt.Errorf("save alarm: invalid id %d", rec.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.UpsertAlarm(ctx, rec.withDefaults()); err != nil {
		return fmt.Errorf("upsert alarm: %w", err)
	}
	s.lastID = max(s.lastID, rec.ID)
	return nil
}

// Create allocates an id for rec and persists it under one lock hold.
func (s *Store) Create(ctx context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.nextID(ctx)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	rec = rec.withDefaults()
	if err = s.repo.UpsertAlarm(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("upsert alarm: %w", err)
	}
	return rec, nil
}

// GenerateID returns an id greater than every stored id and every id this
// store has handed out before. Callers that persist the id should prefer
// Create, which reserves it in the repository.
func (s *Store) GenerateID(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID(ctx)
}

func (s *Store) nextID(ctx context.Context) (int, error) {
	maxID, err := s.repo.MaxAlarmID(ctx)
	if err != nil {
		return 0, fmt.Errorf("get max alarm id: %w", err)
	}
	s.lastID = max(maxID, s.lastID) + 1
	return s.lastID, nil
}

func (s *Store) Get(ctx context.Context, id int) (Record, error) {
	rec, err := s.repo.GetAlarm(ctx, id)
	if err != nil {
		return Record{}, fmt.Errorf("get alarm %d: %w", id, err)
	}
	return rec, nil
}

func (s *Store) GetAll(ctx context.Context) ([]Record, error) {
	recs, err := s.repo.ListAlarms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	return recs, nil
}

func (s *Store) GetByStatus(ctx context.Context, status Status) ([]Record, error) {
	recs, err := s.repo.ListAlarmsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list alarms by status: %w", err)
	}
	return recs, nil
}

// GetUpcoming returns scheduled records that are still in the future, soonest
// first.
func (s *Store) GetUpcoming(ctx context.Context) ([]Record, error) {
	recs, err := s.repo.ListUpcomingAlarms(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming alarms: %w", err)
	}
	return recs, nil
}

// Delete removes the record. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.DeleteAlarm(ctx, id); err != nil {
		return fmt.Errorf("delete alarm %d: %w", id, err)
	}
	return nil
}

// UpdateStatus sets the status and stamps the transition time. It returns
// ErrNotFound when no record has the id.
func (s *Store) UpdateStatus(ctx context.Context, id int, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.UpdateAlarmStatus(ctx, id, status, s.clock.Now()); err != nil {
		return fmt.Errorf("update alarm %d status: %w", id, err)
	}
	return nil
}

// IncrementMissedCount adds one to the record's missed count and returns the
// new value.
func (s *Store) IncrementMissedCount(ctx context.Context, id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.repo.IncrementMissedCount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("increment alarm %d missed count: %w", id, err)
	}
	return n, nil
}

// MarkMissed moves every scheduled record whose time has passed to missed and
// returns how many changed. Running it twice in a row changes nothing the
// second time.
func (s *Store) MarkMissed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.repo.MarkMissedAlarms(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("mark missed alarms: %w", err)
	}
	return n, nil
}
