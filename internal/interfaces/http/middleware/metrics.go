package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zeniva/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request counts, latency and in-flight requests in the
// Prometheus registry. The route label is the gin route pattern, so ids in
// paths do not explode the label set.
func HTTPMetrics(prom *telemetry.Prometheus) gin.HandlerFunc {
	if prom == nil {
		return func(c *gin.Context) { c.Next() }
	}
	inFlight := prom.InFlight()
	return func(c *gin.Context) {
		start := time.Now()
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		prom.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
