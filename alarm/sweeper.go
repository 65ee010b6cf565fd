package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/log"
)

// Sweeper periodically moves overdue scheduled records to missed.
type Sweeper struct {
	store    *Store
	interval time.Duration
	clock    clockwork.Clock
	logger   log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(store *Store, interval time.Duration, clock clockwork.Clock, logger log.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Start runs one sweep immediately and then one per interval until Stop is
// called or ctx is done. Calling Start twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	ticker := s.clock.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		s.Sweep(ctx)
		for {
			select {
			case <-ticker.Chan():
				s.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sweeper) Sweep(ctx context.Context) int {
	n, err := s.store.MarkMissed(ctx)
	if err != nil {
		s.logger.Error("failed to sweep missed alarms", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info("marked alarms missed", "count", n)
	}
	return n
}
