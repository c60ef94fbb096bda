package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/shared"
)

// NewIdempotencyStore returns a Redis-backed store when a client is
// available. Without one it falls back to memory unless requireRedis is set.
func NewIdempotencyStore(client *redis.Client, requireRedis bool, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if client != nil {
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, ""), nil
	}
	if requireRedis {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", ErrRedisDisabled)
	}
	logger.Warn("Redis unavailable, using in-memory idempotency store; ledger keys are not shared across instances")
	return NewInMemoryIdempotencyStore(0), nil
}
