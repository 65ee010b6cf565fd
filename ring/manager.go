package ring

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/log"
)

var (
	ErrActivationNotFound = errors.New("activation not found")
	ErrAlreadyRinging     = errors.New("alarm already ringing")
	ErrClosed             = errors.New("ring manager closed")
)

type ManagerOption func(m *Manager)

func WithTiming(timing Timing) ManagerOption {
	return func(m *Manager) {
		m.timing = timing
	}
}

func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithPhrases sets the salutation spoken before the reminder text and the
// yes or no question spoken after it.
func WithPhrases(salutation, prompt string) ManagerOption {
	return func(m *Manager) {
		m.salutation = salutation
		m.prompt = prompt
	}
}

// Manager starts ring cycles and routes user responses to them. A record id
// can only have one live activation; activations without a record (id < 1)
// never collide.
type Manager struct {
	mu      sync.Mutex
	runners map[uuid.UUID]*Runner
	byAlarm map[int]uuid.UUID
	closed  bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	devices    Devices
	handler    OutcomeHandler
	clock      clockwork.Clock
	timing     Timing
	salutation string
	prompt     string
	logger     log.Logger
}

func NewManager(devices Devices, handler OutcomeHandler, logger log.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		runners:    make(map[uuid.UUID]*Runner),
		byAlarm:    make(map[int]uuid.UUID),
		ctx:        ctx,
		cancel:     cancel,
		devices:    devices,
		handler:    handler,
		clock:      clockwork.NewRealClock(),
		timing:     DefaultTiming(),
		salutation: "Appacha,",
		prompt:     "Have you done it? Please answer yes or no.",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ring starts a new activation for the alarm and returns immediately.
func (m *Manager) Ring(_ context.Context, alarmID int, message string) (Activation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Activation{}, ErrClosed
	}
	if alarmID > 0 {
		if id, ok := m.byAlarm[alarmID]; ok {
			return Activation{}, fmt.Errorf("ring alarm %d (activation %s): %w", alarmID, id, ErrAlreadyRinging)
		}
	}

	a := Activation{
		ID:        uuid.New(),
		AlarmID:   alarmID,
		Message:   message,
		StartedAt: m.clock.Now(),
	}
	cycle := NewCycle(m.spokenReminder(message), m.prompt, m.timing)
	r := newRunner(a, cycle, m.devices, m.handler, m.clock, m.logger)

	m.runners[a.ID] = r
	if alarmID > 0 {
		m.byAlarm[alarmID] = a.ID
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		r.run(m.ctx)
		m.remove(a)
	}()

	return r.Activation(), nil
}

// Respond forwards the answer to the activation. The bool is false when the
// activation is no longer waiting for an answer.
func (m *Manager) Respond(ctx context.Context, activationID uuid.UUID, answer Answer) (bool, error) {
	m.mu.Lock()
	r, ok := m.runners[activationID]
	m.mu.Unlock()
	if !ok {
		return false, ErrActivationNotFound
	}
	return r.Respond(ctx, answer), nil
}

// RespondAlarm is Respond keyed by record id.
func (m *Manager) RespondAlarm(ctx context.Context, alarmID int, answer Answer) (bool, error) {
	m.mu.Lock()
	id, ok := m.byAlarm[alarmID]
	m.mu.Unlock()
	if !ok {
		return false, ErrActivationNotFound
	}
	return m.Respond(ctx, id, answer)
}

func (m *Manager) Get(activationID uuid.UUID) (Activation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runners[activationID]
	if !ok {
		return Activation{}, false
	}
	return r.Activation(), true
}

func (m *Manager) Active() []Activation {
	m.mu.Lock()
	out := make([]Activation, 0, len(m.runners))
	for _, r := range m.runners {
		out = append(out, r.Activation())
	}
	m.mu.Unlock()
	slices.SortFunc(out, func(a, b Activation) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return out
}

// Close aborts every live activation and waits for them to release their
// devices.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) remove(a Activation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runners, a.ID)
	if m.byAlarm[a.AlarmID] == a.ID {
		delete(m.byAlarm, a.AlarmID)
	}
}

func (m *Manager) spokenReminder(message string) string {
	if m.salutation == "" {
		return message
	}
	return m.salutation + " " + message
}
