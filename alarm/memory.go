package alarm

import (
	"context"
	"slices"
	"sync"
	"time"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps records in process memory. Nothing survives a
// restart, so it is only suitable for tests and throwaway runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[int]Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[int]Record),
	}
}

func (m *MemoryRepository) UpsertAlarm(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryRepository) GetAlarm(_ context.Context, id int) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryRepository) ListAlarms(_ context.Context) ([]Record, error) {
	return m.filter(func(Record) bool { return true }, byID), nil
}

func (m *MemoryRepository) ListAlarmsByStatus(_ context.Context, status Status) ([]Record, error) {
	return m.filter(func(r Record) bool { return r.Status == status }, byID), nil
}

func (m *MemoryRepository) ListUpcomingAlarms(_ context.Context, now time.Time) ([]Record, error) {
	return m.filter(func(r Record) bool {
		return r.Status == StatusScheduled && r.Time.After(now)
	}, byTime), nil
}

func (m *MemoryRepository) DeleteAlarm(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *MemoryRepository) MaxAlarmID(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	maxID := 0
	for id := range m.records {
		maxID = max(maxID, id)
	}
	return maxID, nil
}

func (m *MemoryRepository) UpdateAlarmStatus(_ context.Context, id int, status Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.DismissedAt = at
	m.records[id] = rec
	return nil
}

func (m *MemoryRepository) IncrementMissedCount(_ context.Context, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return 0, ErrNotFound
	}
	rec.MissedCount++
	m.records[id] = rec
	return rec.MissedCount, nil
}

func (m *MemoryRepository) MarkMissedAlarms(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.records {
		if rec.Status == StatusScheduled && rec.Time.Before(now) {
			rec.Status = StatusMissed
			m.records[id] = rec
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) filter(keep func(Record) bool, cmp func(a, b Record) int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, cmp)
	return out
}

func byID(a, b Record) int {
	return a.ID - b.ID
}

func byTime(a, b Record) int {
	if c := a.Time.Compare(b.Time); c != 0 {
		return c
	}
	return byID(a, b)
}
