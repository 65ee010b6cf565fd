package sms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/metrics"
)

type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

type SenderOption func(s *Sender)

// WithRateLimiter throttles sends per recipient number.
func WithRateLimiter(limiter RateLimiter) SenderOption {
	return func(s *Sender) {
		s.limiter = limiter
	}
}

func WithWorkers(workers, queueSize int, timeout time.Duration) SenderOption {
	return func(s *Sender) {
		s.workers, s.queueSize, s.timeout = workers, queueSize, timeout
	}
}

func WithMetrics(m *metrics.Metrics) SenderOption {
	return func(s *Sender) {
		s.metrics = m
	}
}

// Sender delivers outbound texts. Send is fire and forget: delivery happens
// on a worker, failures are logged and nothing is retried.
type Sender struct {
	transport Transport
	limiter   RateLimiter
	pool      *WorkerPool
	workers   int
	queueSize int
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    log.Logger
	drained   chan struct{}
}

func NewSender(transport Transport, logger log.Logger, opts ...SenderOption) *Sender {
	s := &Sender{
		transport: transport,
		workers:   2,
		queueSize: 64,
		timeout:   30 * time.Second,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pool = NewWorkerPool(s.workers, s.queueSize, s.timeout)
	return s
}

func (s *Sender) Start(ctx context.Context) {
	errs := s.pool.Start(ctx)
	s.drained = make(chan struct{})
	go func() {
		defer close(s.drained)
		for err := range errs {
			s.logger.Warn("text not sent", "error", err)
		}
	}()
}

// Send queues body for delivery to the given number. An empty number is a
// logged no-op.
func (s *Sender) Send(ctx context.Context, to, body string) {
	to = strings.TrimSpace(to)
	if to == "" {
		s.logger.Warn("no recipient number configured, text dropped")
		s.metrics.SMSSent("no_recipient")
		return
	}
	queued := s.pool.QueueJob(ctx, func(ctx context.Context) error {
		return s.SendNow(ctx, to, body)
	})
	if !queued {
		s.metrics.SMSSent("dropped")
		s.logger.Warn("outbound queue unavailable, text dropped", "phone", to)
	}
}

// SendNow delivers body synchronously, waiting for the rate limiter first.
func (s *Sender) SendNow(ctx context.Context, to, body string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, to); err != nil {
			s.metrics.SMSSent("rate_limited")
			return fmt.Errorf("wait for send slot to %s: %w", to, err)
		}
	}
	if err := s.transport.Send(ctx, to, body); err != nil {
		s.metrics.SMSSent("error")
		return fmt.Errorf("send text to %s: %w", to, err)
	}
	s.metrics.SMSSent("ok")
	s.logger.Debug("text sent", "phone", to, "length", len(body))
	return nil
}

// Flush waits for every queued text to be handed to the transport.
func (s *Sender) Flush() {
	s.pool.Wait()
}

func (s *Sender) Close() {
	s.pool.Close()
	if s.drained != nil {
		<-s.drained
	}
}
