package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{in: "debug", want: slog.LevelDebug, wantOK: true},
		{in: "INFO", want: slog.LevelInfo, wantOK: true},
		{in: " warn ", want: slog.LevelWarn, wantOK: true},
		{in: "error", want: slog.LevelError, wantOK: true},
		{in: "verbose", want: slog.LevelInfo, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_structured(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithWriter(&buf), WithLevel(slog.LevelWarn))

	logger.Info("dropped")
	logger.Warn("kept", "alarm_id", 9)

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), `"alarm_id":9`)
}
