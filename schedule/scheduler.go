package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/metrics"
)

var ErrNoFacility = errors.New("no scheduling facility available")

// TriggerFunc is called from the timer goroutine when a registration fires.
type TriggerFunc func(ctx context.Context, id int, message string)

type entry struct {
	reg      Registration
	facility Facility
	timer    clockwork.Timer
	seq      uint64
}

type Option func(s *Scheduler)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// Scheduler keeps at most one timer per alarm id. Facilities are tried in
// the order given; a permission denial falls through to the next one and
// prompts the user once.
type Scheduler struct {
	mu         sync.Mutex
	entries    map[int]*entry
	seq        uint64
	prompted   bool
	facilities []Facility
	notice     Notice
	trigger    TriggerFunc
	clock      clockwork.Clock
	metrics    *metrics.Metrics
	logger     log.Logger
}

func New(facilities []Facility, notice Notice, trigger TriggerFunc, logger log.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		entries:    make(map[int]*entry),
		facilities: facilities,
		notice:     notice,
		trigger:    trigger,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefault builds a scheduler with the three standard tiers.
func NewDefault(perms Permissions, notice Notice, inexactWindow time.Duration, trigger TriggerFunc, logger log.Logger, opts ...Option) *Scheduler {
	return New([]Facility{
		NewAlarmClockFacility(perms, notice),
		NewExactIdleFacility(perms),
		NewInexactIdleFacility(inexactWindow),
	}, notice, trigger, logger, opts...)
}

// SetTrigger replaces the callback run when a timer fires.
func (s *Scheduler) SetTrigger(trigger TriggerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger = trigger
}

// Schedule arms a timer for id, replacing any timer already armed for it.
func (s *Scheduler) Schedule(_ context.Context, id int, message string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel(id)

	reg := Registration{ID: id, Message: message, At: at}
	for _, f := range s.facilities {
		fireAt, err := f.Arm(reg)
		if errors.Is(err, ErrPermissionDenied) {
			s.degrade(f.Tier())
			continue
		}
		if err != nil {
			return fmt.Errorf("arm %s timer: %w", f.Tier(), err)
		}

		reg.FireAt = fireAt
		reg.Tier = f.Tier()
		s.seq++
		e := &entry{reg: reg, facility: f, seq: s.seq}
		seq := e.seq
		e.timer = s.clock.AfterFunc(max(fireAt.Sub(s.clock.Now()), 0), func() {
			s.fire(id, seq)
		})
		s.entries[id] = e
		s.metrics.SchedulerTier(string(reg.Tier))
		s.logger.Debug("alarm armed", "alarm_id", id, "tier", reg.Tier, "fire_at", fireAt.Format(time.RFC3339))
		return nil
	}

	return ErrNoFacility
}

// Cancel disarms id. Cancelling an id that is not armed does nothing.
func (s *Scheduler) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel(id)
}

func (s *Scheduler) Pending() []Registration {
	s.mu.Lock()
	out := make([]Registration, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.reg)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b Registration) int {
		return a.FireAt.Compare(b.FireAt)
	})
	return out
}

func (s *Scheduler) Get(id int) (Registration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Registration{}, false
	}
	return e.reg, true
}

// Close disarms every timer.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.entries {
		s.cancel(id)
	}
}

func (s *Scheduler) cancel(id int) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.timer.Stop()
	e.facility.Disarm(e.reg)
	delete(s.entries, id)
}

func (s *Scheduler) fire(id int, seq uint64) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.entries, id)
	e.facility.Disarm(e.reg)
	trigger := s.trigger
	s.mu.Unlock()

	s.logger.Info("alarm timer fired", "alarm_id", id, "tier", e.reg.Tier)
	if trigger != nil {
		trigger(context.Background(), id, e.reg.Message)
	}
}

func (s *Scheduler) degrade(tier Tier) {
	s.logger.Debug("scheduling facility denied", "tier", tier)
	if s.prompted {
		return
	}
	s.prompted = true
	s.notice.PromptExactPermission()
}
