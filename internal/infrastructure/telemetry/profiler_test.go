package telemetry

import (
	"context"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"

	"github.com/zeniva/backend/internal/infrastructure/config"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(config.ProfilingConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	log := zaptest.NewLogger(t)

	_, err := NewProfiler(config.ProfilingConfig{Enabled: true, ApplicationName: "zeniva"}, log)
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(config.ProfilingConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, log)
	assert.ErrorContains(t, err, "application name")

	_, err = NewProfiler(config.ProfilingConfig{
		Enabled:         true,
		ServerAddress:   "http://pyroscope:4040",
		ApplicationName: "zeniva",
		ProfileTypes:    []string{"cpu", "heap"},
	}, log)
	assert.ErrorContains(t, err, `unknown profile type "heap"`)
}

func TestResolveProfileTypes(t *testing.T) {
	types, err := resolveProfileTypes([]string{"cpu", "goroutines", "block_duration"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileGoroutines, pyroscope.ProfileBlockDuration}, types)

	assert.Equal(t, 5, positiveOr(0, 5))
	assert.Equal(t, 3, positiveOr(3, 5))
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	disabled := &TracerProvider{logger: zaptest.NewLogger(t)}
	disabled.EnableSpanProfiles()
	assert.False(t, disabled.SpanProfilesEnabled())

	sdk := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })
	tp := &TracerProvider{provider: sdk, logger: zaptest.NewLogger(t), config: Config{Enabled: true, ServiceName: "test"}}

	tp.EnableSpanProfiles()
	tp.EnableSpanProfiles()
	require.True(t, tp.SpanProfilesEnabled())
	_, unwrapped := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, unwrapped, "global provider is wrapped for span profiles")

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}
