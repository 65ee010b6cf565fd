package sms

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/metrics"
	"github.com/oppamcare/oppam/protocol"
)

// Receiver is the inbound pipeline. Control messages are decoded and handed
// to the Handler; everything else goes to the Inbox unchanged.
type Receiver struct {
	handler     Handler
	inbox       Inbox
	reassembler *Reassembler
	clock       clockwork.Clock
	metrics     *metrics.Metrics
	logger      log.Logger
}

func NewReceiver(handler Handler, inbox Inbox, reassembler *Reassembler, logger log.Logger, m *metrics.Metrics) *Receiver {
	return &Receiver{
		handler:     handler,
		inbox:       inbox,
		reassembler: reassembler,
		clock:       clockwork.NewRealClock(),
		metrics:     m,
		logger:      logger,
	}
}

// ReceiveBatch handles a message whose segments were delivered together.
func (r *Receiver) ReceiveBatch(ctx context.Context, segs []Segment) Verdict {
	return r.Receive(ctx, Join(segs))
}

// ReceiveSegment handles one segment of a message whose parts arrive
// separately. It returns VerdictPending until the last part is in.
func (r *Receiver) ReceiveSegment(ctx context.Context, seg Segment) Verdict {
	msg, ok, err := r.reassembler.Add(seg)
	if err != nil {
		r.logger.Warn("dropped malformed segment", "phone", seg.From, "ref", seg.Ref, "error", err)
		return VerdictRejected
	}
	if !ok {
		return VerdictPending
	}
	return r.Receive(ctx, msg)
}

func (r *Receiver) Receive(ctx context.Context, msg Message) Verdict {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = r.clock.Now()
	}
	logger := r.logger.With("phone", msg.From)

	m, err := protocol.Decode(msg.Body)
	if errors.Is(err, protocol.ErrNotControl) {
		r.metrics.SMSReceived("plain")
		if err = r.inbox.Deliver(ctx, msg); err != nil {
			logger.Error("failed to deliver text to inbox", "error", err)
		}
		return VerdictDelivered
	}

	if err != nil {
		prefix := "unknown"
		var perr *protocol.ParseError
		if errors.As(err, &perr) {
			prefix = perr.Prefix
		}
		r.metrics.ParseFailure(prefix)
		logger.Warn("dropped malformed control message", "error", err)
		return VerdictSuppressed
	}

	r.metrics.SMSReceived(string(m.Kind()))
	logger.Info("control message received", "kind", m.Kind())
	if err = r.handler.HandleControl(ctx, msg.From, m, msg.ReceivedAt); err != nil {
		logger.Error("failed to handle control message", "kind", m.Kind(), "error", err)
	}
	return VerdictSuppressed
}
