package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppamcare/oppam/log"
)

type fired struct {
	mu  sync.Mutex
	ids []int
	msg []string
}

func (f *fired) trigger(_ context.Context, id int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	f.msg = append(f.msg, message)
}

func (f *fired) snapshot() ([]int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.ids...), append([]string(nil), f.msg...)
}

type noticeStub struct {
	mu       sync.Mutex
	pending  map[int]Registration
	prompted int
}

func newNoticeStub() *noticeStub {
	return &noticeStub{pending: make(map[int]Registration)}
}

func (n *noticeStub) ShowPending(reg Registration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[reg.ID] = reg
}

func (n *noticeStub) ClearPending(reg Registration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.pending, reg.ID)
}

func (n *noticeStub) PromptExactPermission() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompted++
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newScheduler(t *testing.T, perms Permissions) (*Scheduler, fakeClock, *fired, *noticeStub) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	f := &fired{}
	notice := newNoticeStub()
	s := NewDefault(perms, notice, 15*time.Minute, f.trigger, log.NewNopLogger(), WithClock(clock))
	t.Cleanup(s.Close)
	return s, clock, f, notice
}

func TestScheduler_firesOnceAtTime(t *testing.T) {
	s, clock, f, notice := newScheduler(t, StaticPermissions{AlarmClock: true, Exact: true})

	at := clock.Now().Add(time.Minute)
	require.NoError(t, s.Schedule(t.Context(), 7, "take pills", at))

	reg, ok := s.Get(7)
	require.True(t, ok)
	assert.Equal(t, TierAlarmClock, reg.Tier)
	assert.Contains(t, notice.pending, 7)

	clock.Advance(59 * time.Second)
	ids, _ := f.snapshot()
	assert.Empty(t, ids)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		ids, _ := f.snapshot()
		return len(ids) == 1
	}, time.Second, 5*time.Millisecond)

	ids, msgs := f.snapshot()
	assert.Equal(t, []int{7}, ids)
	assert.Equal(t, []string{"take pills"}, msgs)
	assert.Empty(t, s.Pending())
}

func TestScheduler_rescheduleReplaces(t *testing.T) {
	s, clock, f, _ := newScheduler(t, StaticPermissions{Exact: true})

	require.NoError(t, s.Schedule(t.Context(), 3, "first", clock.Now().Add(time.Minute)))
	require.NoError(t, s.Schedule(t.Context(), 3, "second", clock.Now().Add(2*time.Minute)))
	require.Len(t, s.Pending(), 1)

	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	ids, _ := f.snapshot()
	assert.Empty(t, ids, "replaced timer must not fire")

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		_, msgs := f.snapshot()
		return len(msgs) == 1 && msgs[0] == "second"
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_cancel(t *testing.T) {
	s, clock, f, notice := newScheduler(t, StaticPermissions{AlarmClock: true, Exact: true})

	require.NoError(t, s.Schedule(t.Context(), 4, "walk", clock.Now().Add(time.Minute)))
	s.Cancel(4)
	s.Cancel(99) // not armed

	clock.Advance(2 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	ids, _ := f.snapshot()
	assert.Empty(t, ids)
	assert.Empty(t, notice.pending)
}

func TestScheduler_tierFallback(t *testing.T) {
	tests := []struct {
		name         string
		perms        StaticPermissions
		wantTier     Tier
		wantPrompted int
	}{
		{name: "all granted", perms: StaticPermissions{AlarmClock: true, Exact: true}, wantTier: TierAlarmClock},
		{name: "no alarm clock", perms: StaticPermissions{Exact: true}, wantTier: TierExactIdle, wantPrompted: 1},
		{name: "nothing granted", perms: StaticPermissions{}, wantTier: TierInexactIdle, wantPrompted: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock, _, notice := newScheduler(t, tt.perms)
			for id := 1; id <= 3; id++ {
				require.NoError(t, s.Schedule(t.Context(), id, "x", clock.Now().Add(time.Hour)))
				reg, ok := s.Get(id)
				require.True(t, ok)
				assert.Equal(t, tt.wantTier, reg.Tier)
			}
			assert.Equal(t, tt.wantPrompted, notice.prompted, "prompt is shown at most once")
		})
	}
}

func TestInexactIdleFacility_roundsUpToWindow(t *testing.T) {
	f := NewInexactIdleFacility(15 * time.Minute)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	got, err := f.Arm(Registration{At: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, base.Add(15*time.Minute), got)

	got, err = f.Arm(Registration{At: base})
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestScheduler_pastTimeFiresImmediately(t *testing.T) {
	s, clock, f, _ := newScheduler(t, StaticPermissions{Exact: true})
	require.NoError(t, s.Schedule(t.Context(), 5, "late", clock.Now().Add(-time.Minute)))
	require.Eventually(t, func() bool {
		ids, _ := f.snapshot()
		return len(ids) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEchoHandler_ListPending(t *testing.T) {
	s, clock, _, _ := newScheduler(t, StaticPermissions{AlarmClock: true, Exact: true})
	require.NoError(t, s.Schedule(t.Context(), 2, "later", clock.Now().Add(2*time.Hour)))
	require.NoError(t, s.Schedule(t.Context(), 1, "soon", clock.Now().Add(time.Hour)))

	e := echo.New()
	NewEchoHandler(s).Register(e.Group(""))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedule", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res ListPendingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Pending, 2)
	assert.Equal(t, 1, res.Pending[0].ID)
	assert.Equal(t, TierAlarmClock, res.Pending[0].Tier)
}
