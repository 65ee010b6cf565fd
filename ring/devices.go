package ring

import (
	"time"
)

type Tone interface {
	Play(d time.Duration) error
	Stop() error
}

type Vibrator interface {
	Vibrate(pattern []time.Duration, repeat bool) error
	Cancel() error
}

// WakeHold keeps the device awake. Implementations release the hold on their
// own once max has elapsed, even if Release is never called.
type WakeHold interface {
	Acquire(max time.Duration) error
	Release() error
}

// Screen shows the alarm over the lock screen together with the yes and no
// controls.
type Screen interface {
	Show(a Activation) error
	Dismiss(a Activation) error
}

// Voice is the speech output service. Ready is closed once the engine can
// speak. Speak flushes anything queued and returns a channel that is closed
// when the utterance finishes or is interrupted.
type Voice interface {
	Ready() <-chan struct{}
	Speak(text string) (<-chan struct{}, error)
	Stop() error
}

type Devices struct {
	Tone     Tone
	Vibrator Vibrator
	Wake     WakeHold
	Screen   Screen
	Voice    Voice
}
