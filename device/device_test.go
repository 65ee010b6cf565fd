package device

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/ring"
)

func TestWakeLock_release(t *testing.T) {
	w := NewWakeLock(clockwork.NewFakeClock(), log.NewNopLogger())

	require.NoError(t, w.Acquire(5*time.Minute))
	require.NoError(t, w.Acquire(5*time.Minute))
	assert.True(t, w.Held())

	require.NoError(t, w.Release())
	assert.True(t, w.Held(), "one hold still outstanding")
	require.NoError(t, w.Release())
	assert.False(t, w.Held())

	require.NoError(t, w.Release(), "extra release is a no-op")
}

func TestWakeLock_expires(t *testing.T) {
	ctx := t.Context()
	clock := clockwork.NewFakeClock()
	w := NewWakeLock(clock, log.NewNopLogger())

	require.NoError(t, w.Acquire(5*time.Minute))
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(4 * time.Minute)
	assert.True(t, w.Held())

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return !w.Held() }, time.Second, 5*time.Millisecond)
}

func TestConsole(t *testing.T) {
	c := NewConsole(log.NewNopLogger())
	a := ring.Activation{ID: uuid.New(), AlarmID: 9, Message: "Walk"}

	require.NoError(t, c.Show(a))
	require.NoError(t, c.Play(5*time.Second))
	require.NoError(t, c.Vibrate(ring.VibrationPattern, true))
	assert.True(t, c.Busy())

	require.NoError(t, c.Stop())
	require.NoError(t, c.Cancel())
	assert.True(t, c.Busy(), "screen still shown")

	require.NoError(t, c.Dismiss(a))
	assert.False(t, c.Busy())
}
