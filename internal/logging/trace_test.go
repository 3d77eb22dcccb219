package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestTraceHandler_AddsIDsForValidSpan(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, slog.LevelInfo)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.Info(ctx, "hello")

	m := decodeLine(t, &buf)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", m["trace_id"])
	assert.Equal(t, "0102030405060708", m["span_id"])
	assert.Equal(t, true, m["trace_sampled"])
}

func TestTraceHandler_NoSpanNoIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, slog.LevelInfo)

	log.With("component", "sweeper").Info(context.Background(), "hello")

	m := decodeLine(t, &buf)
	assert.NotContains(t, m, "trace_id")
	assert.Equal(t, "sweeper", m["component"])
}

func TestNewJSON_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, slog.LevelWarn)

	log.Info(context.Background(), "dropped")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "kept")
	assert.Contains(t, buf.String(), "kept")
}
