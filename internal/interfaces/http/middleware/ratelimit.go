package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/zeniva/backend/internal/interfaces/http/dto"
)

// RateLimiter keeps one token bucket per key. Each key may make limit
// requests per window, with a burst of limit.
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	every  rate.Limit

	mu        sync.Mutex
	clients   map[string]*limiterEntry
	lastSweep time.Time

	// OnLimited is called with the limiter name for each rejected request
	OnLimited func(name string)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(name string, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		name:      name,
		limit:     limit,
		window:    window,
		every:     rate.Every(window / time.Duration(limit)),
		clients:   make(map[string]*limiterEntry),
		lastSweep: time.Now(),
	}
}

// Allow checks if a request from the given key should be allowed. It
// returns how long to wait when it is not.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)
	e, ok := rl.clients[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops buckets idle for two windows; they would be full again anyway
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, e := range rl.clients {
		if now.Sub(e.lastSeen) > 2*rl.window {
			delete(rl.clients, key)
		}
	}
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := limiter.Allow(keyFunc(c))
		if !ok {
			if limiter.OnLimited != nil {
				limiter.OnLimited(limiter.name)
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			abortWithError(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Next()
	}
}
