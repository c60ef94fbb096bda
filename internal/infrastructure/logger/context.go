package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	tenantIDKey  contextKey = "tenant_id"
	accountIDKey contextKey = "account_id"
	sessionIDKey contextKey = "session_id"
)

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

func withField(ctx context.Context, key contextKey, value string) context.Context {
	ctx = context.WithValue(ctx, key, value)
	return WithContext(ctx, FromContext(ctx).With(zap.String(string(key), value)))
}

// WithRequestID tags ctx and its logger with the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withField(ctx, requestIDKey, requestID)
}

// WithTenantID tags ctx and its logger with the tenant id.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return withField(ctx, tenantIDKey, tenantID)
}

// WithAccountID tags ctx and its logger with the acting account.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return withField(ctx, accountIDKey, accountID)
}

// WithSessionID tags ctx and its logger with the session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return withField(ctx, sessionIDKey, sessionID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }
func GetTenantID(ctx context.Context) string  { return stringValue(ctx, tenantIDKey) }
func GetAccountID(ctx context.Context) string { return stringValue(ctx, accountIDKey) }
func GetSessionID(ctx context.Context) string { return stringValue(ctx, sessionIDKey) }

// GetTraceID returns the active OpenTelemetry trace id, if any.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the active OpenTelemetry span id, if any.
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}

// L returns the context logger enriched with trace correlation fields.
//
//	logger.L(ctx).Info("trip created", zap.String("trip_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if traceID := GetTraceID(ctx); traceID != "" {
		l = l.With(zap.String("trace_id", traceID), zap.String("span_id", GetSpanID(ctx)))
	}
	return l
}
