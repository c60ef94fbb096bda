package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter("auth", 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		assert.True(t, ok, "request %d", i+1)
	}
	ok, wait := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, 20*time.Second)

	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok, "keys are limited independently")
}

func TestRateLimiter_RejectedRequestsDoNotConsume(t *testing.T) {
	rl := NewRateLimiter("auth", 1, 100*time.Millisecond)

	ok, _ := rl.Allow("k")
	assert.True(t, ok)
	for i := 0; i < 5; i++ {
		ok, _ = rl.Allow("k")
		assert.False(t, ok)
	}
	time.Sleep(120 * time.Millisecond)
	ok, _ = rl.Allow("k")
	assert.True(t, ok)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter("auth", 2, time.Minute)
	var limited []string
	rl.OnLimited = func(name string) { limited = append(limited, name) }

	router := gin.New()
	router.Use(RateLimit(rl))
	router.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:4711"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, last))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, []string{"auth"}, limited)
}
