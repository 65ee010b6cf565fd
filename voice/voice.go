package voice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/log"
)

var ErrClosed = errors.New("voice service closed")

// Service is a speech output engine with an explicit lifecycle: Open starts
// initialisation, Ready is closed once speech is possible and Close releases
// the engine. Speak flushes any utterance that is still playing.
type Service interface {
	Open(ctx context.Context) error
	Ready() <-chan struct{}
	Speak(text string) (<-chan struct{}, error)
	Stop() error
	Close() error
}

// LogService writes utterances to the log. Each utterance lasts for a time
// proportional to its length so callers waiting on completion behave as they
// would with a real engine.
type LogService struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	logger  log.Logger
	perRune time.Duration
	ready   chan struct{}
	current *utterance
	closed  bool
}

type utterance struct {
	done  chan struct{}
	timer clockwork.Timer
	once  sync.Once
}

func (u *utterance) finish() {
	u.once.Do(func() {
		if u.timer != nil {
			u.timer.Stop()
		}
		close(u.done)
	})
}

func NewLogService(clock clockwork.Clock, logger log.Logger) *LogService {
	return &LogService{
		clock:   clock,
		logger:  logger,
		perRune: 60 * time.Millisecond,
		ready:   make(chan struct{}),
	}
}

func (s *LogService) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
	return nil
}

func (s *LogService) Ready() <-chan struct{} {
	return s.ready
}

func (s *LogService) Speak(text string) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.flush()

	u := &utterance{done: make(chan struct{})}
	u.timer = s.clock.AfterFunc(time.Duration(len([]rune(text)))*s.perRune, u.finish)
	s.current = u
	s.logger.Info("speaking", "text", text)
	return u.done, nil
}

func (s *LogService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush()
	return nil
}

func (s *LogService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush()
	s.closed = true
	return nil
}

func (s *LogService) flush() {
	if s.current != nil {
		s.current.finish()
		s.current = nil
	}
}

// CommandService speaks by running an external text to speech program, for
// example espeak-ng, with the text appended as the last argument.
type CommandService struct {
	mu     sync.Mutex
	name   string
	args   []string
	logger log.Logger
	ready  chan struct{}
	cancel context.CancelFunc
	closed bool
}

func NewCommandService(name string, args []string, logger log.Logger) *CommandService {
	return &CommandService{
		name:   name,
		args:   args,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Open checks that the program exists. Readiness is signalled asynchronously
// to match engines that initialise in the background.
func (s *CommandService) Open(ctx context.Context) error {
	path, err := exec.LookPath(s.name)
	if err != nil {
		return fmt.Errorf("look up speech command %q: %w", s.name, err)
	}
	s.name = path
	go func() {
		select {
		case <-ctx.Done():
		default:
			close(s.ready)
		}
	}()
	return nil
}

func (s *CommandService) Ready() <-chan struct{} {
	return s.ready
}

func (s *CommandService) Speak(text string) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.stop()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	args := append(append([]string{}, s.args...), text)
	cmd := exec.CommandContext(ctx, s.name, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start speech command: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.logger.Warn("speech command failed", "error", err)
		}
	}()
	return done, nil
}

func (s *CommandService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	return nil
}

func (s *CommandService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	s.closed = true
	return nil
}

func (s *CommandService) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
