package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// OnlineThreshold is how recently the counterpart must have been heard from
// to count as online.
const OnlineThreshold = 5 * time.Minute

type PresenceRepository interface {
	SavePresence(ctx context.Context, phone string, seenAt time.Time) error
	LastSeen(ctx context.Context, phone string) (time.Time, error)
}

type Snapshot struct {
	Phone    string    `json:"phone"`
	LastSeen time.Time `json:"last_seen,omitzero"`
	Online   bool      `json:"online"`
	Text     string    `json:"text"`
}

// Presence remembers when each counterpart number was last heard from.
type Presence struct {
	mu    sync.RWMutex
	seen  map[string]time.Time
	repo  PresenceRepository
	clock clockwork.Clock
}

func NewPresence(repo PresenceRepository, clock clockwork.Clock) *Presence {
	return &Presence{
		seen:  make(map[string]time.Time),
		repo:  repo,
		clock: clock,
	}
}

func (p *Presence) MarkSeen(ctx context.Context, phone string) error {
	now := p.clock.Now()
	p.mu.Lock()
	p.seen[phone] = now
	p.mu.Unlock()
	if p.repo == nil {
		return nil
	}
	if err := p.repo.SavePresence(ctx, phone, now); err != nil {
		return fmt.Errorf("save presence: %w", err)
	}
	return nil
}

func (p *Presence) LastSeen(ctx context.Context, phone string) (time.Time, bool) {
	p.mu.RLock()
	at, ok := p.seen[phone]
	p.mu.RUnlock()
	if ok || p.repo == nil {
		return at, ok
	}
	at, err := p.repo.LastSeen(ctx, phone)
	if err != nil || at.IsZero() {
		return time.Time{}, false
	}
	p.mu.Lock()
	p.seen[phone] = at
	p.mu.Unlock()
	return at, true
}

func (p *Presence) IsOnline(ctx context.Context, phone string) bool {
	at, ok := p.LastSeen(ctx, phone)
	return ok && p.clock.Since(at) < OnlineThreshold
}

func (p *Presence) Snapshot(ctx context.Context, phone string) Snapshot {
	at, ok := p.LastSeen(ctx, phone)
	s := Snapshot{Phone: phone, Text: "Never"}
	if !ok {
		return s
	}
	elapsed := p.clock.Since(at)
	s.LastSeen = at
	s.Online = elapsed < OnlineThreshold
	s.Text = LastSeenText(elapsed)
	return s
}

// LastSeenText renders an elapsed duration in whole minutes, hours or days.
func LastSeenText(elapsed time.Duration) string {
	minutes := int64(elapsed / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%d min ago", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%d hours ago", minutes/60)
	default:
		return fmt.Sprintf("%d days ago", minutes/(24*60))
	}
}
