package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates access tokens before they expire, on logout
// or when an account is suspended.
type TokenBlacklist interface {
	// Revoke blacklists one token id for ttl, usually its remaining lifetime.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeAccount rejects every token of the account issued strictly
	// before the current millisecond. Tokens issued afterwards stay valid.
	RevokeAccount(ctx context.Context, accountID string, ttl time.Duration) error
	IsAccountRevoked(ctx context.Context, accountID string, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, keyPrefix: "zeniva:token:"}
}

func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.keyPrefix+"jti:"+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.keyPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

func (b *RedisTokenBlacklist) RevokeAccount(ctx context.Context, accountID string, ttl time.Duration) error {
	err := b.client.Set(ctx, b.keyPrefix+"account:"+accountID, revocationCutoff().UnixMilli(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke account tokens: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsAccountRevoked(ctx context.Context, accountID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.keyPrefix+"account:"+accountID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check account revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.UnixMilli() < revokedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is for tests and single-instance deployments.
type InMemoryTokenBlacklist struct {
	mu        sync.Mutex
	tokens    map[string]time.Time // jti -> expiry
	revokedAt map[string]time.Time // account id -> cutoff
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens:    make(map[string]time.Time),
		revokedAt: make(map[string]time.Time),
	}
}

func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = time.Now().Add(ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.tokens[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(b.tokens, jti)
		return false, nil
	}
	return true, nil
}

func (b *InMemoryTokenBlacklist) RevokeAccount(_ context.Context, accountID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revokedAt[accountID] = revocationCutoff()
	return nil
}

func (b *InMemoryTokenBlacklist) IsAccountRevoked(_ context.Context, accountID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff, ok := b.revokedAt[accountID]
	if !ok {
		return false, nil
	}
	return issuedAt.Before(cutoff), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)

// revocationCutoff matches the precision of the iat claim
func revocationCutoff() time.Time {
	return time.Now().Truncate(time.Millisecond)
}
