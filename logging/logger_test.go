package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLevel("chatty"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestNewLogger_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf, Component: "cart"})

	l.Debug("hidden")
	l.Info("cart.add", "item", "Milk - 1L", "quantity", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "cart.add", entry["msg"])
	assert.Equal(t, "cart", entry["component"])
	assert.Equal(t, "Milk - 1L", entry["item"])
	assert.EqualValues(t, 2, entry["quantity"])
}

type recordingLogger struct {
	NoOpLogger
	args []any
}

func (r *recordingLogger) Info(_ string, args ...any) { r.args = args }

func TestWith_WrapsForeignLogger(t *testing.T) {
	rec := &recordingLogger{}
	l := With(rec, "session_id", "s1")
	l.Info("x", "k", "v")
	assert.Equal(t, []any{"session_id", "s1", "k", "v"}, rec.args)

	assert.IsType(t, NoOpLogger{}, With(nil))
}

func TestLogToolCall(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})
	LogToolCall(l, "add_item", 5*time.Millisecond, nil)
	LogToolCall(l, "place_order", time.Millisecond, errors.New("disk full"))
	out := buf.String()
	assert.Contains(t, out, "tool.call.completed")
	assert.Contains(t, out, "tool.call.failed")
	assert.Contains(t, out, "disk full")
}
