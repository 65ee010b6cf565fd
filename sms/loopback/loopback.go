// Package loopback connects devices inside one process. It stands in for the
// cellular network in tests and single host demos.
package loopback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oppamcare/oppam/sms"
)

var ErrUnreachable = errors.New("number unreachable")

// Receiver is the part of sms.Receiver the network delivers to.
type Receiver interface {
	Receive(ctx context.Context, msg sms.Message) sms.Verdict
}

type Delivery struct {
	From    string
	To      string
	Body    string
	Verdict sms.Verdict
	At      time.Time
}

// Network routes texts between attached numbers. Delivery is synchronous.
// Drop, when set, lets a test lose individual texts.
type Network struct {
	mu        sync.Mutex
	receivers map[string]Receiver
	log       []Delivery
	clock     clockwork.Clock
	Drop      func(from, to, body string) bool
}

func NewNetwork(clock clockwork.Clock) *Network {
	return &Network{
		receivers: make(map[string]Receiver),
		clock:     clock,
	}
}

func (n *Network) Attach(number string, r Receiver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receivers[number] = r
}

// Endpoint returns a transport that sends from number.
func (n *Network) Endpoint(number string) *Endpoint {
	return &Endpoint{network: n, number: number}
}

// Deliveries returns every text that reached a receiver, oldest first.
func (n *Network) Deliveries() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Delivery(nil), n.log...)
}

func (n *Network) deliver(ctx context.Context, from, to, body string) error {
	n.mu.Lock()
	r, ok := n.receivers[to]
	drop := n.Drop
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("deliver to %s: %w", to, ErrUnreachable)
	}
	if drop != nil && drop(from, to, body) {
		return nil
	}

	now := n.clock.Now()
	verdict := r.Receive(ctx, sms.Message{From: from, Body: body, ReceivedAt: now})

	n.mu.Lock()
	n.log = append(n.log, Delivery{From: from, To: to, Body: body, Verdict: verdict, At: now})
	n.mu.Unlock()
	return nil
}

var _ sms.Transport = (*Endpoint)(nil)

type Endpoint struct {
	network *Network
	number  string
}

func (e *Endpoint) Send(ctx context.Context, to, body string) error {
	return e.network.deliver(ctx, e.number, to, body)
}
