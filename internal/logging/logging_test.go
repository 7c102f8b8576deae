package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeeFansOutByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	h := NewTee(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With("component", "test")

	logger.Info("hello")
	logger.Error("boom", "error", "bad")

	assert.Contains(t, info.String(), `"msg":"hello"`)
	assert.Contains(t, info.String(), `"msg":"boom"`)
	assert.NotContains(t, errs.String(), "hello")
	assert.Contains(t, errs.String(), `"component":"test"`)
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

type brokenSink struct{ slog.Handler }

func (brokenSink) Handle(context.Context, slog.Record) error { return errors.New("stdout closed") }

func TestTeeKeepsGoingAfterSinkError(t *testing.T) {
	var buf bytes.Buffer
	h := NewTee(
		brokenSink{slog.NewJSONHandler(&bytes.Buffer{}, nil)},
		slog.NewJSONHandler(&buf, nil),
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "db down", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdout closed")
	assert.Contains(t, buf.String(), `"msg":"db down"`)

	slog.New(h).Error("second")
	assert.Contains(t, buf.String(), `"msg":"second"`)
}

func TestPGHandlerBuffersErrorsWithAttrs(t *testing.T) {
	h := &PGHandler{sink: &pgSink{}}
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("request_id", "req-1")}))
	logger.Error("query failed", "user_id", "u-1", "path", "/api/x", "error", "timeout", "table", "scores")

	require.Len(t, h.sink.buffer, 1)
	entry := h.sink.buffer[0]
	assert.Equal(t, "query failed", entry.Message)
	assert.Equal(t, "req-1", entry.TraceID)
	assert.Equal(t, "/api/x", entry.Path)
	assert.Equal(t, "timeout", entry.Error)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-1", *entry.UserID)
	assert.JSONEq(t, `{"table":"scores"}`, string(entry.Extra))
}
