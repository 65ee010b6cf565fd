// Package location shares this device's position with the caregiver over
// one or more channels.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/protocol"
	"github.com/oppamcare/oppam/status"
)

type Transmitter interface {
	Transmit(ctx context.Context, loc status.Location) error
}

type TextSender interface {
	SendNow(ctx context.Context, to, body string) error
}

// SMSTransmitter sends the position as an OPPAM_LOC control message.
type SMSTransmitter struct {
	sender TextSender
	phone  string
	logger log.Logger
}

func NewSMSTransmitter(sender TextSender, phone string, logger log.Logger) *SMSTransmitter {
	return &SMSTransmitter{sender: sender, phone: phone, logger: logger}
}

func (t *SMSTransmitter) Transmit(ctx context.Context, loc status.Location) error {
	if strings.TrimSpace(t.phone) == "" {
		t.logger.Warn("caregiver phone not set, skipping location text")
		return nil
	}
	body, err := protocol.Encode(protocol.LocationUpdate{
		Lat:      loc.Lat,
		Lng:      loc.Lng,
		Accuracy: loc.Accuracy,
		Time:     loc.Time,
	})
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	return t.sender.SendNow(ctx, t.phone, body)
}

// Identity names both ends of the pairing in webhook payloads.
type Identity struct {
	ElderName      string
	ElderPhone     string
	CaregiverName  string
	CaregiverPhone string
}

type WebhookOption func(w *WebhookTransmitter)

func WithWebhookTimeout(d time.Duration) WebhookOption {
	return func(w *WebhookTransmitter) {
		w.client.SetTimeout(d)
	}
}

// WebhookTransmitter posts the position to a caregiver platform as JSON. An
// empty URL disables it.
type WebhookTransmitter struct {
	client   *resty.Client
	url      string
	identity Identity
	logger   log.Logger
}

func NewWebhookTransmitter(url string, identity Identity, logger log.Logger, opts ...WebhookOption) *WebhookTransmitter {
	w := &WebhookTransmitter{
		client: resty.New().
			SetTimeout(8*time.Second).
			SetHeader("Content-Type", "application/json"),
		url:      url,
		identity: identity,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type WebhookPayload struct {
	Type           string  `json:"type"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Accuracy       float32 `json:"accuracy"`
	Timestamp      int64   `json:"timestamp"`
	ElderName      string  `json:"elderName"`
	ElderPhone     string  `json:"elderPhone"`
	CaregiverName  string  `json:"caregiverName"`
	CaregiverPhone string  `json:"caregiverPhone"`
}

func (w *WebhookTransmitter) Transmit(ctx context.Context, loc status.Location) error {
	if w.url == "" {
		w.logger.Debug("no platform url configured, skipping location webhook")
		return nil
	}
	res, err := w.client.R().
		SetContext(ctx).
		SetBody(WebhookPayload{
			Type:           "OPPAM_LOC",
			Lat:            loc.Lat,
			Lng:            loc.Lng,
			Accuracy:       loc.Accuracy,
			Timestamp:      loc.Time.UnixMilli(),
			ElderName:      w.identity.ElderName,
			ElderPhone:     w.identity.ElderPhone,
			CaregiverName:  w.identity.CaregiverName,
			CaregiverPhone: w.identity.CaregiverPhone,
		}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post location webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("post location webhook: unexpected status %d", res.StatusCode())
	}
	w.logger.Info("location webhook delivered", "status", res.StatusCode())
	return nil
}

// Composite sends through every transmitter. A failing channel does not stop
// the others; the failures are logged and returned joined.
type Composite struct {
	transmitters []Transmitter
	logger       log.Logger
}

func NewComposite(logger log.Logger, transmitters ...Transmitter) *Composite {
	return &Composite{transmitters: transmitters, logger: logger}
}

func (c *Composite) Transmit(ctx context.Context, loc status.Location) error {
	var errs []error
	for _, t := range c.transmitters {
		if err := t.Transmit(ctx, loc); err != nil {
			c.logger.Warn("location channel failed", "channel", fmt.Sprintf("%T", t), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
