package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" Debug ", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFormat(tt.input))
		})
	}
}

func TestNew_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	log.Info("dropped")
	log.Warn("kept", "kind", "vrp")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "vrp", rec["kind"])
}

func TestNew_Tee(t *testing.T) {
	var out, tee bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &out, Tee: &tee})

	log.With("component", "engine").Info("started")

	assert.Contains(t, out.String(), "msg=started")
	assert.Contains(t, out.String(), "component=engine")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(tee.Bytes(), &rec))
	assert.Equal(t, "engine", rec["component"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	var a, b bytes.Buffer
	debugOnly := New(Config{Level: LevelDebug, Output: &a}).Handler()
	errorOnly := New(Config{Level: LevelError, Output: &b}).Handler()

	h := NewMultiHandler(debugOnly, errorOnly)
	assert.True(t, h.Enabled(t.Context(), LevelDebug))

	none := NewMultiHandler(errorOnly)
	assert.False(t, none.Enabled(t.Context(), LevelInfo))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("ignored") })
}
