package telemetry

import (
	"context"
	"errors"
	"time"

	infraconfig "github.com/zeniva/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Telemetry bundles the providers started for one process.
type Telemetry struct {
	Tracer     *TracerProvider
	Profiler   *Profiler
	Logs       *LoggerProvider
	Meter      *MeterProvider
	Business   *BusinessMetrics
	Prometheus *Prometheus
}

// ConfigFrom maps the application telemetry settings
func ConfigFrom(cfg infraconfig.TelemetryConfig) Config {
	return Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}
}

// Setup starts tracing, profiling, the log bridge and metrics. Providers that fail to
// start are shut down before the error is returned.
func Setup(ctx context.Context, cfg infraconfig.TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	tcfg := ConfigFrom(cfg)
	t := &Telemetry{Prometheus: NewPrometheus("zeniva")}

	var err error
	if t.Tracer, err = NewTracerProvider(ctx, tcfg, logger); err != nil {
		return nil, err
	}
	if t.Profiler, err = NewProfiler(cfg.Profiling, logger); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	if cfg.Profiling.SpanProfiles && t.Profiler.IsEnabled() {
		t.Tracer.EnableSpanProfiles()
	}
	if t.Logs, err = NewLoggerProvider(ctx, tcfg, logger); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	if t.Meter, err = NewMeterProvider(ctx, tcfg, 30*time.Second, logger); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	if t.Business, err = NewBusinessMetrics(t.Meter.Meter(TracerName)); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	return t, nil
}

// Shutdown flushes and stops every started provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	return errors.Join(errs...)
}
