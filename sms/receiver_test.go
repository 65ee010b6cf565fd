package sms

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/protocol"
)

const caregiverPhone = "+919800000001"

func newReceiver(t *testing.T, handler Handler) (*Receiver, *MemoryInbox) {
	t.Helper()
	inbox := NewMemoryInbox()
	reassembler := NewReassembler(time.Minute, clockwork.NewFakeClock())
	return NewReceiver(handler, inbox, reassembler, log.NewNopLogger(), nil), inbox
}

func okHandler() *HandlerMock {
	return &HandlerMock{
		HandleControlFunc: func(ctx context.Context, from string, msg protocol.Message, receivedAt time.Time) error {
			return nil
		},
	}
}

func TestReceiver_Receive(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantVerdict Verdict
		wantHandled protocol.Message
		wantInbox   bool
	}{
		{
			name:        "schedule alarm is handled and suppressed",
			body:        "OPPAM_ALARM:7|1700000000000|Take BP tablet",
			wantVerdict: VerdictSuppressed,
			wantHandled: protocol.ScheduleAlarm{ID: 7, Time: time.UnixMilli(1700000000000).UTC(), Text: "Take BP tablet"},
		},
		{
			name:        "instant is handled and suppressed",
			body:        "OPPAM:Lunch",
			wantVerdict: VerdictSuppressed,
			wantHandled: protocol.Instant{Text: "Lunch"},
		},
		{
			name:        "malformed alarm is suppressed without action",
			body:        "OPPAM_ALARM:bad|x|y",
			wantVerdict: VerdictSuppressed,
		},
		{
			name:        "plain text reaches the inbox",
			body:        "Reached home safely",
			wantVerdict: VerdictDelivered,
			wantInbox:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := okHandler()
			r, inbox := newReceiver(t, handler)

			got := r.Receive(t.Context(), Message{From: caregiverPhone, Body: tt.body})
			assert.Equal(t, tt.wantVerdict, got)

			calls := handler.HandleControlCalls()
			if tt.wantHandled == nil {
				assert.Empty(t, calls)
			} else {
				require.Len(t, calls, 1)
				assert.Equal(t, tt.wantHandled, calls[0].Msg)
				assert.Equal(t, caregiverPhone, calls[0].From)
				assert.False(t, calls[0].ReceivedAt.IsZero())
			}

			msgs, err := inbox.List(t.Context(), 0)
			require.NoError(t, err)
			if tt.wantInbox {
				require.Len(t, msgs, 1)
				assert.Equal(t, tt.body, msgs[0].Body)
			} else {
				assert.Empty(t, msgs)
			}
		})
	}
}

func TestReceiver_handlerErrorStillSuppresses(t *testing.T) {
	handler := &HandlerMock{
		HandleControlFunc: func(ctx context.Context, from string, msg protocol.Message, receivedAt time.Time) error {
			return assert.AnError
		},
	}
	r, inbox := newReceiver(t, handler)
	assert.Equal(t, VerdictSuppressed, r.Receive(t.Context(), Message{From: caregiverPhone, Body: "OPPAM:hi"}))
	msgs, _ := inbox.List(t.Context(), 0)
	assert.Empty(t, msgs)
}

func TestReceiver_ReceiveBatch_joinsBeforeParsing(t *testing.T) {
	handler := okHandler()
	r, _ := newReceiver(t, handler)

	// The prefix only appears in the first part and the message text is
	// split across parts.
	segs := []Segment{
		{From: caregiverPhone, Part: 2, Total: 3, Body: "000|Evening "},
		{From: caregiverPhone, Part: 1, Total: 3, Body: "OPPAM_ALARM:3|1700000000"},
		{From: caregiverPhone, Part: 3, Total: 3, Body: "walk"},
	}
	assert.Equal(t, VerdictSuppressed, r.ReceiveBatch(t.Context(), segs))

	calls := handler.HandleControlCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, protocol.ScheduleAlarm{ID: 3, Time: time.UnixMilli(1700000000000).UTC(), Text: "Evening walk"}, calls[0].Msg)
}

func TestReceiver_ReceiveSegment(t *testing.T) {
	handler := okHandler()
	r, inbox := newReceiver(t, handler)
	ctx := t.Context()

	assert.Equal(t, VerdictPending, r.ReceiveSegment(ctx, Segment{From: caregiverPhone, Ref: "a", Part: 2, Total: 2, Body: " tablet"}))
	assert.Equal(t, VerdictPending, r.ReceiveSegment(ctx, Segment{From: "+10000000000", Ref: "a", Part: 1, Total: 2, Body: "not ours"}))
	assert.Equal(t, VerdictSuppressed, r.ReceiveSegment(ctx, Segment{From: caregiverPhone, Ref: "a", Part: 1, Total: 2, Body: "OPPAM:Take BP"}))

	calls := handler.HandleControlCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, protocol.Instant{Text: "Take BP tablet"}, calls[0].Msg)

	assert.Equal(t, VerdictDelivered, r.ReceiveSegment(ctx, Segment{From: caregiverPhone, Body: "single part"}))
	msgs, _ := inbox.List(ctx, 0)
	require.Len(t, msgs, 1)
}

func TestReassembler_gc(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReassembler(time.Minute, clock)
	r.StartGC(t.Context(), 10*time.Second)

	_, ok, err := r.Add(Segment{From: caregiverPhone, Ref: "x", Part: 1, Total: 2, Body: "OPPAM:"})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, r.Pending())

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool { return r.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestReassembler_rejectsBadParts(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
	}{
		{name: "part above total", seg: Segment{From: caregiverPhone, Ref: "r", Part: 3, Total: 2, Body: "junk"}},
		{name: "part zero", seg: Segment{From: caregiverPhone, Ref: "r", Part: 0, Total: 2, Body: "junk"}},
		{name: "total changed", seg: Segment{From: caregiverPhone, Ref: "r", Part: 2, Total: 3, Body: "junk"}},
		{name: "missing ref", seg: Segment{From: caregiverPhone, Part: 2, Total: 2, Body: "junk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReassembler(time.Minute, clockwork.NewFakeClock())
			_, ok, err := r.Add(Segment{From: caregiverPhone, Ref: "r", Part: 1, Total: 2, Body: "OPPAM_ALARM:7|1700000000000|Take "})
			require.NoError(t, err)
			require.False(t, ok)

			_, ok, err = r.Add(tt.seg)
			require.Error(t, err)
			assert.False(t, ok)
			assert.Equal(t, 1, r.Pending())

			msg, ok, err := r.Add(Segment{From: caregiverPhone, Ref: "r", Part: 2, Total: 2, Body: "medicine"})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "OPPAM_ALARM:7|1700000000000|Take medicine", msg.Body)
		})
	}
}

func TestReceiver_ReceiveSegment_rejectsOutOfRange(t *testing.T) {
	handler := okHandler()
	r, inbox := newReceiver(t, handler)
	ctx := t.Context()

	assert.Equal(t, VerdictPending, r.ReceiveSegment(ctx, Segment{From: caregiverPhone, Ref: "b", Part: 1, Total: 2, Body: "OPPAM_ALARM:7|1700000000000|Take "}))
	assert.Equal(t, VerdictRejected, r.ReceiveSegment(ctx, Segment{From: caregiverPhone, Ref: "b", Part: 3, Total: 2, Body: "junk"}))

	assert.Empty(t, handler.HandleControlCalls())
	msgs, err := inbox.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
