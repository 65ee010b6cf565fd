// Package mqttbridge exchanges texts with a GSM modem bridge over MQTT. The
// bridge publishes every received segment on the inbound topic and sends
// whatever is published on the outbound topic.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/sms"
)

const qosAtLeastOnce byte = 1

type Config struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	InboundTopic  string
	OutboundTopic string
}

type SegmentReceiver interface {
	ReceiveSegment(ctx context.Context, seg sms.Segment) sms.Verdict
}

// Client is the subset of the paho client the bridge uses.
type Client interface {
	Connect() mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

var _ sms.Transport = (*Bridge)(nil)

type Bridge struct {
	client   Client
	cfg      Config
	receiver SegmentReceiver
	logger   log.Logger
}

// New builds a bridge on a paho client configured from cfg.
func New(cfg Config, receiver SegmentReceiver, logger log.Logger) *Bridge {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	return NewWithClient(mqtt.NewClient(opts), cfg, receiver, logger)
}

func NewWithClient(client Client, cfg Config, receiver SegmentReceiver, logger log.Logger) *Bridge {
	return &Bridge{
		client:   client,
		cfg:      cfg,
		receiver: receiver,
		logger:   logger.With("broker", cfg.Broker),
	}
}

// SetReceiver sets where inbound segments go. It must be called before
// Connect when the bridge was built without one.
func (b *Bridge) SetReceiver(receiver SegmentReceiver) {
	b.receiver = receiver
}

// Connect connects to the broker and subscribes to inbound segments.
func (b *Bridge) Connect(ctx context.Context) error {
	if b.receiver == nil {
		return errors.New("connect to mqtt broker: no segment receiver set")
	}
	if err := wait(ctx, b.client.Connect()); err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}
	token := b.client.Subscribe(b.cfg.InboundTopic, qosAtLeastOnce, func(_ mqtt.Client, msg mqtt.Message) {
		if err := b.HandlePayload(context.Background(), msg.Payload()); err != nil {
			b.logger.Warn("dropped inbound mqtt payload", "topic", msg.Topic(), "error", err)
		}
	})
	if err := wait(ctx, token); err != nil {
		return fmt.Errorf("subscribe to topic %s: %w", b.cfg.InboundTopic, err)
	}
	b.logger.Info("mqtt bridge connected", "inbound_topic", b.cfg.InboundTopic, "outbound_topic", b.cfg.OutboundTopic)
	return nil
}

type inboundPayload struct {
	From       string `json:"from"`
	Body       string `json:"body"`
	Ref        string `json:"ref"`
	Part       int    `json:"part"`
	Total      int    `json:"total"`
	ReceivedAt int64  `json:"received_at"`
}

type outboundPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (b *Bridge) HandlePayload(ctx context.Context, payload []byte) error {
	var in inboundPayload
	if err := json.Unmarshal(payload, &in); err != nil {
		return fmt.Errorf("decode inbound segment: %w", err)
	}
	if in.From == "" {
		return errors.New("decode inbound segment: missing sender")
	}
	seg := sms.Segment{
		From:  in.From,
		Ref:   in.Ref,
		Part:  in.Part,
		Total: in.Total,
		Body:  in.Body,
	}
	if err := seg.Validate(); err != nil {
		return fmt.Errorf("decode inbound segment: %w", err)
	}
	if in.ReceivedAt > 0 {
		seg.ReceivedAt = time.UnixMilli(in.ReceivedAt).UTC()
	}
	b.receiver.ReceiveSegment(ctx, seg)
	return nil
}

func (b *Bridge) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(outboundPayload{To: to, Body: body})
	if err != nil {
		return fmt.Errorf("encode outbound text: %w", err)
	}
	if err = wait(ctx, b.client.Publish(b.cfg.OutboundTopic, qosAtLeastOnce, false, payload)); err != nil {
		return fmt.Errorf("publish to topic %s: %w", b.cfg.OutboundTopic, err)
	}
	return nil
}

func (b *Bridge) Close() {
	if b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
