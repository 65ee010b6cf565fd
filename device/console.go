package device

import (
	"sync"
	"time"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/ring"
)

var (
	_ ring.Tone     = (*Console)(nil)
	_ ring.Vibrator = (*Console)(nil)
	_ ring.Screen   = (*Console)(nil)
)

// Console stands in for the speaker, vibration motor and screen on a host
// without them. It logs every request and remembers what is currently on.
type Console struct {
	mu        sync.Mutex
	logger    log.Logger
	toning    bool
	vibrating bool
	shown     map[string]ring.Activation
}

func NewConsole(logger log.Logger) *Console {
	return &Console{
		logger: logger,
		shown:  make(map[string]ring.Activation),
	}
}

func (c *Console) Play(d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toning = true
	c.logger.Info("tone playing", "duration", d.String())
	return nil
}

func (c *Console) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.toning {
		c.toning = false
		c.logger.Debug("tone stopped")
	}
	return nil
}

func (c *Console) Vibrate(pattern []time.Duration, repeat bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vibrating = true
	c.logger.Debug("vibration started", "pattern_len", len(pattern), "repeat", repeat)
	return nil
}

func (c *Console) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vibrating = false
	return nil
}

func (c *Console) Show(a ring.Activation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown[a.ID.String()] = a
	c.logger.Info("alarm shown", "activation_id", a.ID, "alarm_id", a.AlarmID, "message", a.Message)
	return nil
}

func (c *Console) Dismiss(a ring.Activation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shown, a.ID.String())
	return nil
}

// Busy reports whether a tone, vibration or alarm screen is still active.
func (c *Console) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toning || c.vibrating || len(c.shown) > 0
}
