package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestNewHandler_RequestIdAndGroups(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, "json", slog.LevelInfo, "/nowhere", ctxKey{})
	require.NoError(t, err)

	l := slog.New(h).With(slog.String("component", "test"))
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")

	l.InfoContext(ctx, "hello")
	l.DebugContext(ctx, "dropped")

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"component":"test"`)
	assert.NotContains(t, out, "dropped")
}

func TestNewHandler_InvalidFormat(t *testing.T) {
	_, err := NewHandler(&bytes.Buffer{}, "xml", slog.LevelInfo, "", nil)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("WARN")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, ok = ParseLevel("chatty")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestPGXLevel(t *testing.T) {
	lvl, ok := pgxLevel(tracelog.LogLevelInfo)
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, ok = pgxLevel(tracelog.LogLevelError)
	assert.True(t, ok)
	assert.Equal(t, slog.LevelError, lvl)

	_, ok = pgxLevel(tracelog.LogLevel(99))
	assert.False(t, ok)
}
