package device

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/log"
)

// WakeLock is a counted wake hold. Each Acquire arms its own expiry so a
// holder that never calls Release cannot keep the device awake past max.
type WakeLock struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	logger log.Logger
	holds  []clockwork.Timer
	held   bool
}

func NewWakeLock(clock clockwork.Clock, logger log.Logger) *WakeLock {
	return &WakeLock{
		clock:  clock,
		logger: logger,
	}
}

func (w *WakeLock) Acquire(max time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var t clockwork.Timer
	t = w.clock.AfterFunc(max, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.drop(t) {
			w.logger.Warn("wake hold expired", "max", max.String())
		}
	})
	w.holds = append(w.holds, t)
	if !w.held {
		w.held = true
		w.logger.Debug("wake hold acquired", "max", max.String())
	}
	return nil
}

// Release drops the oldest outstanding hold.
func (w *WakeLock) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.holds) == 0 {
		return nil
	}
	t := w.holds[0]
	t.Stop()
	w.drop(t)
	return nil
}

func (w *WakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held
}

func (w *WakeLock) drop(t clockwork.Timer) bool {
	for i, h := range w.holds {
		if h == t {
			w.holds = append(w.holds[:i], w.holds[i+1:]...)
			break
		}
	}
	if len(w.holds) == 0 && w.held {
		w.held = false
		w.logger.Debug("wake hold released")
		return true
	}
	return false
}
