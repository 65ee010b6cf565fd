package sms

import (
	"context"
	"slices"
	"sync"
)

var _ Inbox = (*MemoryInbox)(nil)

type MemoryInbox struct {
	mu   sync.Mutex
	msgs []Message
}

func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{}
}

func (i *MemoryInbox) Deliver(_ context.Context, msg Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, msg)
	return nil
}

// List returns the newest messages first.
func (i *MemoryInbox) List(_ context.Context, limit int) ([]Message, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := slices.Clone(i.msgs)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
