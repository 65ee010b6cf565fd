// Package protocol encodes and decodes the control messages that travel
// between paired devices inside ordinary SMS bodies.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	PrefixInstant  = "OPPAM:"
	PrefixAlarm    = "OPPAM_ALARM:"
	PrefixLocation = "OPPAM_LOC:"
)

// ErrNotControl is returned by Decode for bodies that carry no recognised
// prefix. Such messages belong in the visible inbox.
var ErrNotControl = errors.New("not a control message")

// ParseError reports a body that carries a recognised prefix but a payload
// that cannot be parsed. The message is still a control message and must not
// reach the visible inbox.
type ParseError struct {
	Prefix string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s payload: %s", strings.TrimSuffix(e.Prefix, ":"), e.Reason)
}

type Kind string

const (
	KindInstant  Kind = "instant"
	KindAlarm    Kind = "alarm"
	KindLocation Kind = "location"
)

// Message is one of Instant, ScheduleAlarm or LocationUpdate.
type Message interface {
	Kind() Kind
	isMessage()
}

// Instant asks the elder device to ring now with the given text.
type Instant struct {
	Text string
}

// ScheduleAlarm asks the receiver to persist and arm an alarm.
type ScheduleAlarm struct {
	ID   int
	Time time.Time
	Text string
}

// LocationUpdate carries the sender's last known position.
type LocationUpdate struct {
	Lat      float64
	Lng      float64
	Accuracy float32
	Time     time.Time
}

func (Instant) Kind() Kind        { return KindInstant }
func (ScheduleAlarm) Kind() Kind  { return KindAlarm }
func (LocationUpdate) Kind() Kind { return KindLocation }

func (Instant) isMessage()        {}
func (ScheduleAlarm) isMessage()  {}
func (LocationUpdate) isMessage() {}

// IsControl reports whether body starts with a recognised prefix, regardless
// of whether its payload parses.
func IsControl(body string) bool {
	return prefixOf(body) != ""
}

func prefixOf(body string) string {
	switch {
	case strings.HasPrefix(body, PrefixAlarm):
		return PrefixAlarm
	case strings.HasPrefix(body, PrefixLocation):
		return PrefixLocation
	case strings.HasPrefix(body, PrefixInstant):
		return PrefixInstant
	}
	return ""
}

// Decode parses an SMS body. It returns ErrNotControl when the body has no
// recognised prefix and a *ParseError when the prefix is recognised but the
// payload is malformed.
func Decode(body string) (Message, error) {
	prefix := prefixOf(body)
	payload := strings.TrimPrefix(body, prefix)
	switch prefix {
	case PrefixInstant:
		return decodeInstant(payload)
	case PrefixAlarm:
		return decodeAlarm(payload)
	case PrefixLocation:
		return decodeLocation(payload)
	}
	return nil, ErrNotControl
}

func decodeInstant(payload string) (Message, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, &ParseError{Prefix: PrefixInstant, Reason: "empty message"}
	}
	return Instant{Text: payload}, nil
}

func decodeAlarm(payload string) (Message, error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 3 {
		return nil, &ParseError{Prefix: PrefixAlarm, Reason: fmt.Sprintf("want 3 fields, got %d", len(parts))}
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil || id < 1 {
		return nil, &ParseError{Prefix: PrefixAlarm, Reason: fmt.Sprintf("invalid id %q", parts[0])}
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, &ParseError{Prefix: PrefixAlarm, Reason: fmt.Sprintf("invalid time %q", parts[1])}
	}
	if strings.TrimSpace(parts[2]) == "" {
		return nil, &ParseError{Prefix: PrefixAlarm, Reason: "empty message"}
	}
	return ScheduleAlarm{
		ID:   id,
		Time: time.UnixMilli(millis).UTC(),
		Text: parts[2],
	}, nil
}

func decodeLocation(payload string) (Message, error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 3 {
		return nil, &ParseError{Prefix: PrefixLocation, Reason: fmt.Sprintf("want 3 fields, got %d", len(parts))}
	}
	coords := strings.Split(parts[0], ",")
	if len(coords) != 2 {
		return nil, &ParseError{Prefix: PrefixLocation, Reason: fmt.Sprintf("invalid coordinates %q", parts[0])}
	}
	lat, err := strconv.ParseFloat(coords[0], 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, &ParseError{Prefix: PrefixLocation, Reason: fmt.Sprintf("invalid latitude %q", coords[0])}
	}
	lng, err := strconv.ParseFloat(coords[1], 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, &ParseError{Prefix: PrefixLocation, Reason: fmt.Sprintf("invalid longitude %q", coords[1])}
	}
	acc, err := strconv.ParseFloat(parts[1], 32)
	if err != nil || acc < 0 {
		return nil, &ParseError{Prefix: PrefixLocation, Reason: fmt.Sprintf("invalid accuracy %q", parts[1])}
	}
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, &ParseError{Prefix: PrefixLocation, Reason: fmt.Sprintf("invalid time %q", parts[2])}
	}
	return LocationUpdate{
		Lat:      lat,
		Lng:      lng,
		Accuracy: float32(acc),
		Time:     time.UnixMilli(millis).UTC(),
	}, nil
}

// ValidateAlarmText reports whether text can be carried in an OPPAM_ALARM
// body.
func ValidateAlarmText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("empty message")
	}
	if strings.Contains(text, "|") {
		return errors.New("message must not contain '|'")
	}
	return nil
}

// Encode renders m as an SMS body. Values that would not decode back to the
// same message are rejected.
func Encode(m Message) (string, error) {
	switch m := m.(type) {
	case Instant:
		if strings.TrimSpace(m.Text) == "" {
			return "", errors.New("encode instant: empty message")
		}
		return PrefixInstant + m.Text, nil
	case ScheduleAlarm:
		if m.ID < 1 {
			return "", fmt.Errorf("encode alarm: invalid id %d", m.ID)
		}
		if err := ValidateAlarmText(m.Text); err != nil {
			return "", fmt.Errorf("encode alarm: %w", err)
		}
		return fmt.Sprintf("%s%d|%d|%s", PrefixAlarm, m.ID, m.Time.UnixMilli(), m.Text), nil
	case LocationUpdate:
		if m.Lat < -90 || m.Lat > 90 || m.Lng < -180 || m.Lng > 180 {
			return "", fmt.Errorf("encode location: coordinates out of range (%f, %f)", m.Lat, m.Lng)
		}
		if m.Accuracy < 0 {
			return "", fmt.Errorf("encode location: negative accuracy %f", m.Accuracy)
		}
		return fmt.Sprintf("%s%s,%s|%s|%d",
			PrefixLocation,
			strconv.FormatFloat(m.Lat, 'f', -1, 64),
			strconv.FormatFloat(m.Lng, 'f', -1, 64),
			strconv.FormatFloat(float64(m.Accuracy), 'f', -1, 32),
			m.Time.UnixMilli(),
		), nil
	case nil:
		return "", errors.New("encode: nil message")
	}
	return "", fmt.Errorf("encode: unsupported message %T", m)
}
