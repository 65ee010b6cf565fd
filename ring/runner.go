package ring

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/log"
)

type Activation struct {
	ID        uuid.UUID `json:"id"`
	AlarmID   int       `json:"alarm_id"`
	Message   string    `json:"message"`
	StartedAt time.Time `json:"started_at"`
	State     State     `json:"state"`
}

type Result struct {
	ActivationID uuid.UUID
	AlarmID      int
	Message      string
	Outcome      Outcome
	At           time.Time
}

type OutcomeHandler interface {
	HandleOutcome(ctx context.Context, res Result) error
}

type response struct {
	answer Answer
	reply  chan bool
}

// Runner drives one Cycle. All inputs (responses, voice events and timer
// expiry) are funnelled through its goroutine so the cycle never sees two
// events at once.
type Runner struct {
	activation Activation
	cycle      *Cycle
	devices    Devices
	handler    OutcomeHandler
	clock      clockwork.Clock
	logger     log.Logger

	state      atomic.Int32
	responses  chan response
	utterances chan Utterance
	done       chan struct{}
}

func newRunner(a Activation, cycle *Cycle, devices Devices, handler OutcomeHandler, clock clockwork.Clock, logger log.Logger) *Runner {
	r := &Runner{
		activation: a,
		cycle:      cycle,
		devices:    devices,
		handler:    handler,
		clock:      clock,
		logger:     logger.With("activation_id", a.ID, "alarm_id", a.AlarmID),
		responses:  make(chan response),
		utterances: make(chan Utterance, 2),
		done:       make(chan struct{}),
	}
	r.state.Store(int32(cycle.State()))
	return r
}

func (r *Runner) Activation() Activation {
	a := r.activation
	a.State = State(r.state.Load())
	return a
}

// Done is closed after the cycle reached a terminal state and its outcome was
// handed off.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Respond delivers the user's answer. It reports false when the activation
// already finished or the answer arrived after a terminal transition.
func (r *Runner) Respond(ctx context.Context, answer Answer) bool {
	resp := response{answer: answer, reply: make(chan bool, 1)}
	select {
	case r.responses <- resp:
	case <-r.done:
		return false
	case <-ctx.Done():
		return false
	}
	select {
	case ok := <-resp.reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

	var ready <-chan struct{}
	if r.devices.Voice != nil {
		ready = r.devices.Voice.Ready()
	}

	var outcome *Outcome
	apply := func(actions []Action) {
		for _, a := range actions {
			if a.Kind == ActionFinish {
				outcome = &a.Outcome
				continue
			}
			r.perform(a)
		}
		r.state.Store(int32(r.cycle.State()))
	}

	apply(r.cycle.Start(r.clock.Now()))
	r.logger.Info("alarm ringing", "message", r.activation.Message)

	for !r.cycle.State().Terminal() {
		var (
			timer  clockwork.Timer
			expiry <-chan time.Time
		)
		if at, ok := r.cycle.Next(); ok {
			wait := at.Sub(r.clock.Now())
			if wait <= 0 {
				apply(r.cycle.Advance(r.clock.Now()))
				continue
			}
			timer = r.clock.NewTimer(wait)
			expiry = timer.Chan()
		}

		select {
		case <-expiry:
			apply(r.cycle.Advance(r.clock.Now()))
		case <-ready:
			ready = nil
			apply(r.cycle.VoiceReady(r.clock.Now()))
		case u := <-r.utterances:
			apply(r.cycle.UtteranceDone(r.clock.Now(), u))
		case resp := <-r.responses:
			actions, ok := r.cycle.Respond(r.clock.Now(), resp.answer)
			apply(actions)
			resp.reply <- ok
		case <-ctx.Done():
			apply(r.cycle.Abort(r.clock.Now()))
			r.logger.Warn("alarm activation aborted", "error", ctx.Err())
		}

		if timer != nil {
			timer.Stop()
		}
	}

	if outcome == nil || r.handler == nil {
		return
	}

	res := Result{
		ActivationID: r.activation.ID,
		AlarmID:      r.activation.AlarmID,
		Message:      r.activation.Message,
		Outcome:      *outcome,
		At:           r.clock.Now(),
	}
	r.logger.Info("alarm activation finished", "outcome", res.Outcome)
	if err := r.safely("handle outcome", func() error {
		return r.handler.HandleOutcome(context.WithoutCancel(ctx), res)
	}); err != nil {
		r.logger.Error("failed to handle alarm outcome", "outcome", res.Outcome, "error", err)
	}
}

func (r *Runner) perform(a Action) {
	if err := r.safely(a.Kind.String(), func() error { return r.do(a) }); err != nil {
		r.logger.Warn("alarm device action failed", "action", a.Kind.String(), "error", err)
	}
}

func (r *Runner) do(a Action) error {
	d := r.devices
	switch a.Kind {
	case ActionAcquireWake:
		if d.Wake != nil {
			return d.Wake.Acquire(a.Duration)
		}
	case ActionReleaseWake:
		if d.Wake != nil {
			return d.Wake.Release()
		}
	case ActionShow:
		if d.Screen != nil {
			return d.Screen.Show(r.Activation())
		}
	case ActionDismiss:
		if d.Screen != nil {
			return d.Screen.Dismiss(r.Activation())
		}
	case ActionPlayTone:
		if d.Tone != nil {
			return d.Tone.Play(a.Duration)
		}
	case ActionStopTone:
		if d.Tone != nil {
			return d.Tone.Stop()
		}
	case ActionVibrate:
		if d.Vibrator != nil {
			return d.Vibrator.Vibrate(VibrationPattern, true)
		}
	case ActionCancelVibration:
		if d.Vibrator != nil {
			return d.Vibrator.Cancel()
		}
	case ActionSpeak:
		return r.speak(a.Text, a.Utterance)
	case ActionStopSpeech:
		if d.Voice != nil {
			return d.Voice.Stop()
		}
	}
	return nil
}

func (r *Runner) speak(text string, u Utterance) error {
	if r.devices.Voice == nil {
		return nil
	}
	finished, err := r.devices.Voice.Speak(text)
	if err != nil {
		return err
	}
	go func() {
		select {
		case <-finished:
		case <-r.done:
			return
		}
		select {
		case r.utterances <- u:
		case <-r.done:
		}
	}()
	return nil
}

// safely runs fn and turns a panic into an error so a misbehaving adapter
// cannot take the cycle down with it.
func (r *Runner) safely(name string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s panicked: %v", name, rec)
		}
	}()
	return fn()
}
