package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_AllSignalsDisabled(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	p, err := Setup(context.Background(), Config{ServiceName: "marketplace"}, base)
	require.NoError(t, err)

	assert.False(t, p.TracesEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.False(t, p.LogsEnabled())
	assert.NotNil(t, p.Meter("checkout"))
	assert.Same(t, base, p.BridgeLogger(base, "marketplace", zapcore.InfoLevel))
	assert.NoError(t, p.Shutdown(context.Background()))

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "Telemetry initialized", recorded.All()[0].Message)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestMinLevelCore(t *testing.T) {
	inner, recorded := observer.New(zapcore.DebugLevel)
	core := &minLevelCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core).With(zap.String("cart_id", "c1"))

	log.Info("dropped")
	log.Warn("kept")

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "c1", entry.ContextMap()["cart_id"])
}

func TestNewResource(t *testing.T) {
	res, err := newResource("marketplace", "1.2.3")
	require.NoError(t, err)

	attrs := make(map[string]string)
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "marketplace", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
}
