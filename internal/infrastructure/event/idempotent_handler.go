package event

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/shared"
)

// IdempotencyMetrics counts outcomes of idempotent handling.
type IdempotencyMetrics struct {
	Processed atomic.Int64
	Duplicate atomic.Int64
	Failed    atomic.Int64
}

// KeyFunc derives the idempotency key for an event. The default is the
// event id; business keys such as a payment id dedupe repeated events
// describing the same fact.
type KeyFunc func(shared.DomainEvent) string

// IdempotentHandler runs the wrapped handler at most once per key.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	keyFunc KeyFunc
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = cfg }
}

func WithKeyFunc(fn KeyFunc) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.keyFunc = fn }
}

func WithIdempotencyMetrics(m *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.metrics = m }
}

func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		keyFunc: func(ev shared.DomainEvent) string { return ev.EventID().String() },
		logger:  logger,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the key before running the handler. A failed run releases
// the key so the next delivery can retry. When the store itself errors the
// handler still runs; downstream guards catch duplicates.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, ev)
	}

	key := h.keyFunc(ev)
	fields := []zap.Field{zap.String("idempotency_key", key), zap.String("event_type", ev.EventType())}

	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, processing anyway", append(fields, zap.Error(err))...)
	case !claimed:
		h.metrics.Duplicate.Add(1)
		h.logger.Info("duplicate event skipped", fields...)
		return nil
	}

	if err := h.handler.Handle(ctx, ev); err != nil {
		h.metrics.Failed.Add(1)
		if claimed {
			if relErr := h.store.Release(ctx, key); relErr != nil {
				h.logger.Warn("failed to release idempotency key", append(fields, zap.Error(relErr))...)
			}
		}
		return err
	}

	h.metrics.Processed.Add(1)
	return nil
}

// Metrics returns the counters of this handler.
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
