package sms

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type partial struct {
	parts map[int]Segment
	total int
	seen  time.Time
}

// Reassembler joins multipart segments that arrive one at a time. Partials
// that stop receiving parts are dropped once ttl has passed.
type Reassembler struct {
	mu       sync.Mutex
	partials map[string]*partial
	ttl      time.Duration
	clock    clockwork.Clock
}

func NewReassembler(ttl time.Duration, clock clockwork.Clock) *Reassembler {
	return &Reassembler{
		partials: make(map[string]*partial),
		ttl:      ttl,
		clock:    clock,
	}
}

// Add stores seg and returns the full message once parts 1 through Total are
// all present. Single part segments complete immediately. A segment that is
// out of range, or whose Total disagrees with earlier parts of the same
// message, is rejected and leaves the partial untouched.
func (r *Reassembler) Add(seg Segment) (Message, bool, error) {
	if err := seg.Validate(); err != nil {
		return Message{}, false, err
	}
	if seg.Total <= 1 {
		return Message{From: seg.From, Body: seg.Body, ReceivedAt: seg.ReceivedAt}, true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := seg.From + "/" + seg.Ref
	p, ok := r.partials[key]
	if !ok {
		p = &partial{parts: make(map[int]Segment), total: seg.Total}
		r.partials[key] = p
	} else if p.total != seg.Total {
		return Message{}, false, fmt.Errorf("segment total %d, earlier parts said %d", seg.Total, p.total)
	}
	p.parts[seg.Part] = seg
	p.seen = r.clock.Now()

	if len(p.parts) < p.total {
		return Message{}, false, nil
	}
	delete(r.partials, key)

	segs := make([]Segment, 0, len(p.parts))
	for _, s := range p.parts {
		segs = append(segs, s)
	}
	return Join(segs), true, nil
}

// Pending is the number of incomplete messages being held.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.partials)
}

// StartGC drops stale partials every interval until ctx is done.
func (r *Reassembler) StartGC(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := r.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				r.collect(r.clock.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *Reassembler) collect(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.partials {
		if now.Sub(p.seen) > r.ttl {
			delete(r.partials, key)
		}
	}
}

// Join concatenates segments of one message in part order.
func Join(segs []Segment) Message {
	if len(segs) == 0 {
		return Message{}
	}
	sorted := slices.Clone(segs)
	slices.SortStableFunc(sorted, func(a, b Segment) int { return a.Part - b.Part })

	var body strings.Builder
	receivedAt := sorted[0].ReceivedAt
	for _, s := range sorted {
		body.WriteString(s.Body)
		if s.ReceivedAt.After(receivedAt) {
			receivedAt = s.ReceivedAt
		}
	}
	return Message{From: sorted[0].From, Body: body.String(), ReceivedAt: receivedAt}
}
