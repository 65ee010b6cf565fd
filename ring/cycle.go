package ring

import (
	"slices"
	"time"
)

type State int

const (
	StateArmed State = iota
	StateRinging
	StateAwaitingResponse
	StateConfirmed
	StateNotCompleted
	StateNoResponse
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateRinging:
		return "ringing"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateConfirmed:
		return "confirmed"
	case StateNotCompleted:
		return "not_completed"
	case StateNoResponse:
		return "no_response"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s >= StateConfirmed
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Outcome string

const (
	OutcomeConfirmed    Outcome = "confirmed"
	OutcomeNotCompleted Outcome = "not_completed"
	OutcomeNoResponse   Outcome = "no_response"
)

type Answer bool

const (
	AnswerYes Answer = true
	AnswerNo  Answer = false
)

// Utterance identifies which of the two spoken lines finished.
type Utterance int

const (
	UtteranceReminder Utterance = iota + 1
	UtterancePrompt
)

// VibrationPattern alternates off and on periods, starting with off.
var VibrationPattern = []time.Duration{
	0, time.Second, 500 * time.Millisecond, time.Second, 500 * time.Millisecond, time.Second,
}

type Timing struct {
	ToneDuration    time.Duration
	ReRingAfter     time.Duration
	NoResponseAfter time.Duration
	PromptDelay     time.Duration
	WakeHoldMax     time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		ToneDuration:    5 * time.Second,
		ReRingAfter:     10 * time.Second,
		NoResponseAfter: 20 * time.Second,
		PromptDelay:     10 * time.Second,
		WakeHoldMax:     5 * time.Minute,
	}
}

type ActionKind int

const (
	ActionAcquireWake ActionKind = iota + 1
	ActionShow
	ActionPlayTone
	ActionStopTone
	ActionVibrate
	ActionCancelVibration
	ActionSpeak
	ActionStopSpeech
	ActionReleaseWake
	ActionDismiss
	ActionFinish
)

func (k ActionKind) String() string {
	switch k {
	case ActionAcquireWake:
		return "acquire_wake"
	case ActionShow:
		return "show"
	case ActionPlayTone:
		return "play_tone"
	case ActionStopTone:
		return "stop_tone"
	case ActionVibrate:
		return "vibrate"
	case ActionCancelVibration:
		return "cancel_vibration"
	case ActionSpeak:
		return "speak"
	case ActionStopSpeech:
		return "stop_speech"
	case ActionReleaseWake:
		return "release_wake"
	case ActionDismiss:
		return "dismiss"
	case ActionFinish:
		return "finish"
	}
	return "unknown"
}

// Action is a side effect the cycle asks its driver to perform. The cycle
// itself never touches a device.
type Action struct {
	Kind      ActionKind
	Duration  time.Duration
	Text      string
	Utterance Utterance
	Outcome   Outcome
}

type deadline int

// Declaration order is the firing order for deadlines that fall due at the
// same instant.
const (
	deadlineToneEnd deadline = iota
	deadlinePrompt
	deadlineReRing
	deadlineNoResponse
)

// Cycle is the deterministic ring and response state machine for a single
// activation. Time only moves when the caller passes a new now, which keeps
// every transition reproducible in tests.
type Cycle struct {
	timing   Timing
	reminder string
	prompt   string

	state     State
	deadlines map[deadline]time.Time

	tonePlaying    bool
	voiceReady     bool
	reminderSpoken bool
	promptSpoken   bool
}

func NewCycle(reminder, prompt string, timing Timing) *Cycle {
	return &Cycle{
		timing:    timing,
		reminder:  reminder,
		prompt:    prompt,
		state:     StateArmed,
		deadlines: make(map[deadline]time.Time),
	}
}

func (c *Cycle) State() State {
	return c.state
}

// Start runs the ringing entry actions and moves straight to awaiting a
// response. The re-ring and no-response deadlines are both measured from now.
func (c *Cycle) Start(now time.Time) []Action {
	if c.state != StateArmed {
		return nil
	}
	c.state = StateRinging
	actions := []Action{
		{Kind: ActionAcquireWake, Duration: c.timing.WakeHoldMax},
		{Kind: ActionShow},
	}
	actions = append(actions, c.ring(now)...)
	c.deadlines[deadlineReRing] = now.Add(c.timing.ReRingAfter)
	c.deadlines[deadlineNoResponse] = now.Add(c.timing.NoResponseAfter)
	c.state = StateAwaitingResponse
	return actions
}

// Next reports the earliest pending deadline.
func (c *Cycle) Next() (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	for _, at := range c.deadlines {
		if !found || at.Before(next) {
			next, found = at, true
		}
	}
	return next, found
}

// Advance fires every deadline that is due at now, earliest first.
func (c *Cycle) Advance(now time.Time) []Action {
	var actions []Action
	for !c.state.Terminal() {
		d, ok := c.due(now)
		if !ok {
			break
		}
		delete(c.deadlines, d)
		actions = append(actions, c.fire(d, now)...)
	}
	return actions
}

// Respond applies the user's answer. It reports false, with no actions, when
// the cycle is no longer waiting for one.
func (c *Cycle) Respond(_ time.Time, answer Answer) ([]Action, bool) {
	if c.state != StateAwaitingResponse {
		return nil, false
	}
	if answer == AnswerYes {
		return c.finish(StateConfirmed, OutcomeConfirmed), true
	}
	return c.finish(StateNotCompleted, OutcomeNotCompleted), true
}

// VoiceReady records that the speech service finished initialising.
func (c *Cycle) VoiceReady(_ time.Time) []Action {
	if c.state.Terminal() || c.voiceReady {
		return nil
	}
	c.voiceReady = true
	return c.speakReminder()
}

// UtteranceDone is called when a spoken line finishes. Once the reminder has
// been read out the verification prompt follows after the prompt delay.
func (c *Cycle) UtteranceDone(now time.Time, u Utterance) []Action {
	if c.state.Terminal() || u != UtteranceReminder || c.promptSpoken {
		return nil
	}
	if _, ok := c.deadlines[deadlinePrompt]; !ok {
		c.deadlines[deadlinePrompt] = now.Add(c.timing.PromptDelay)
	}
	return nil
}

// Abort tears the activation down without an outcome.
func (c *Cycle) Abort(_ time.Time) []Action {
	if c.state.Terminal() {
		return nil
	}
	actions := c.exit()
	c.state = StateAborted
	return actions
}

func (c *Cycle) due(now time.Time) (deadline, bool) {
	var pending []deadline
	for d, at := range c.deadlines {
		if !at.After(now) {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return 0, false
	}
	slices.SortFunc(pending, func(a, b deadline) int {
		if cmp := c.deadlines[a].Compare(c.deadlines[b]); cmp != 0 {
			return cmp
		}
		return int(a) - int(b)
	})
	return pending[0], true
}

func (c *Cycle) fire(d deadline, now time.Time) []Action {
	switch d {
	case deadlineToneEnd:
		c.tonePlaying = false
		return append([]Action{{Kind: ActionStopTone}}, c.speakReminder()...)
	case deadlinePrompt:
		c.promptSpoken = true
		return []Action{{Kind: ActionSpeak, Text: c.prompt, Utterance: UtterancePrompt}}
	case deadlineReRing:
		return c.ring(now)
	case deadlineNoResponse:
		return c.finish(StateNoResponse, OutcomeNoResponse)
	}
	return nil
}

// ring starts a fresh fixed length tone. A tone that is still playing is
// stopped first so that tones never stack.
func (c *Cycle) ring(now time.Time) []Action {
	var actions []Action
	if c.tonePlaying {
		actions = append(actions, Action{Kind: ActionStopTone})
	}
	c.tonePlaying = true
	c.deadlines[deadlineToneEnd] = now.Add(c.timing.ToneDuration)
	return append(actions,
		Action{Kind: ActionPlayTone, Duration: c.timing.ToneDuration},
		Action{Kind: ActionVibrate},
	)
}

func (c *Cycle) speakReminder() []Action {
	if c.reminderSpoken || !c.voiceReady || c.tonePlaying {
		return nil
	}
	c.reminderSpoken = true
	return []Action{{Kind: ActionSpeak, Text: c.reminder, Utterance: UtteranceReminder}}
}

func (c *Cycle) finish(state State, outcome Outcome) []Action {
	actions := append(c.exit(), Action{Kind: ActionFinish, Outcome: outcome})
	c.state = state
	return actions
}

func (c *Cycle) exit() []Action {
	clear(c.deadlines)
	c.tonePlaying = false
	return []Action{
		{Kind: ActionStopTone},
		{Kind: ActionCancelVibration},
		{Kind: ActionStopSpeech},
		{Kind: ActionReleaseWake},
		{Kind: ActionDismiss},
	}
}
