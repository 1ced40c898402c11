package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(buf), zapcore.DebugLevel))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	l := zap.NewNop()

	ctx, l = WithRequestID(ctx, l, "req-1")
	ctx, l = WithCartID(ctx, l, "cart-1")
	ctx, l = WithOrderSetID(ctx, l, "set-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "cart-1", GetCartID(ctx))
	assert.Equal(t, "set-1", GetOrderSetID(ctx))
	assert.Same(t, l, FromContext(ctx))
	assert.Empty(t, GetCartID(context.Background()))
}

func TestContextLogger_EnrichesEntries(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), newBufferLogger(&buf))
	ctx = context.WithValue(ctx, RequestIDKey, "req-9")
	ctx = context.WithValue(ctx, CartIDKey, "cart-9")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	L(ctx).With(zap.String("step", "create-orders")).Info("step done")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "step done", entry["msg"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, "cart-9", entry["cart_id"])
	assert.Equal(t, "create-orders", entry["step"])
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
	assert.NotContains(t, entry, "order_set_id")
}

func TestWithTraceContext_NoSpan(t *testing.T) {
	l := zap.NewNop()
	assert.Same(t, l, WithTraceContext(context.Background(), l))
}
