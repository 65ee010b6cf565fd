// Package sms moves message bodies between paired devices over a best effort,
// unordered channel and splits inbound traffic into control messages and
// ordinary texts.
package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oppamcare/oppam/protocol"
)

// Message is a complete inbound text, after multipart reassembly.
type Message struct {
	From       string    `json:"from"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Segment is one part of a multipart text. Parts that share From and Ref
// belong to the same message; Part is 1 based.
type Segment struct {
	From       string    `json:"from"`
	Ref        string    `json:"ref"`
	Part       int       `json:"part"`
	Total      int       `json:"total"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Validate reports whether seg can take part in reassembly. Segments with a
// Total of one or less are whole messages and always valid.
func (s Segment) Validate() error {
	if s.Total <= 1 {
		return nil
	}
	if s.Ref == "" {
		return errors.New("multipart segment without ref")
	}
	if s.Part < 1 || s.Part > s.Total {
		return fmt.Errorf("part %d out of range 1..%d", s.Part, s.Total)
	}
	return nil
}

// Transport hands an outbound body to the radio or gateway.
type Transport interface {
	Send(ctx context.Context, to, body string) error
}

// Inbox is where ordinary texts end up: the user's visible message list.
type Inbox interface {
	Deliver(ctx context.Context, msg Message) error
	List(ctx context.Context, limit int) ([]Message, error)
}

//go:generate go tool moq -out sms_moq_test.go . Handler Transport

// Handler acts on a decoded control message.
type Handler interface {
	HandleControl(ctx context.Context, from string, msg protocol.Message, receivedAt time.Time) error
}

type Verdict int

const (
	// VerdictDelivered means the text went to the inbox.
	VerdictDelivered Verdict = iota + 1
	// VerdictSuppressed means the text was a control message and was kept
	// out of the inbox, whether or not it parsed.
	VerdictSuppressed
	// VerdictPending means more segments are needed.
	VerdictPending
	// VerdictRejected means the segment was malformed and dropped.
	VerdictRejected
)

func (v Verdict) String() string {
	switch v {
	case VerdictDelivered:
		return "delivered"
	case VerdictSuppressed:
		return "suppressed"
	case VerdictPending:
		return "pending"
	case VerdictRejected:
		return "rejected"
	}
	return "unknown"
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
