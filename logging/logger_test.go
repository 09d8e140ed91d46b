package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Output = buf
	cfg.Level = level
	return NewLogger(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestStructuredLogger_KeyValues(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.WithComponent("agent").WithRun("helper", "run-1").Info("agent.run.start", "turn", 3)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "agent.run.start", lines[0]["msg"])
	assert.Equal(t, "agent", lines[0]["component"])
	assert.Equal(t, "helper", lines[0]["agent_name"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Equal(t, float64(3), lines[0]["turn"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.LogToolCall("calc", time.Millisecond, true, nil)
	l.Warn("visible")
	l.LogModelCall("gpt", 10, time.Millisecond, false, errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "visible", lines[0]["msg"])
	assert.Equal(t, "model.call.failed", lines[1]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestStructuredLogger_WithContextIsolation(t *testing.T) {
	base, buf := newBufferLogger(LogLevelInfo)
	child := base.WithContext("team", "alpha")
	base.Info("base")
	child.Info("child")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "team")
	assert.Equal(t, "alpha", lines[1]["team"])
}

func TestArgsToAttrs_BadKey(t *testing.T) {
	attrs := argsToAttrs([]any{"a", 1, 42, "dangling"})
	require.Len(t, attrs, 3)
	assert.Equal(t, "a", attrs[0].Key)
	assert.Equal(t, "!BADKEY", attrs[1].Key)
	assert.Equal(t, "!BADKEY", attrs[2].Key)

	attrs = argsToAttrs([]any{slog.String("k", "v")})
	assert.Equal(t, "k", attrs[0].Key)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
}

func TestEnsure(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, Ensure(nil))
	l := NewDefaultSlogLogger()
	assert.Same(t, l, Ensure(l))
}

func TestStructuredLogger_ErrorWithStack(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.ErrorWithStack(errors.New("boom"), "team.member.panic", "member", "writer")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "*errors.errorString", lines[0]["error_type"])
	assert.Equal(t, "writer", lines[0]["member"])
	assert.NotEmpty(t, lines[0]["stack_trace"])
}
