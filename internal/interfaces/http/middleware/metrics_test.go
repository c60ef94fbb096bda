package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/infrastructure/telemetry"
)

func TestHTTPMetrics(t *testing.T) {
	prom := telemetry.NewPrometheus("zeniva_test")

	router := gin.New()
	router.Use(HTTPMetrics(prom))
	router.GET("/api/v1/agent/trips/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/agent/trips/"+id, nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	srv := httptest.NewServer(prom.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `zeniva_test_http_requests_total{method="GET",route="/api/v1/agent/trips/:id",status="200"} 2`)
	assert.Contains(t, text, `route="unmatched",status="404"`)
	assert.Contains(t, text, "zeniva_test_http_requests_in_flight 0")
}

func TestHTTPMetrics_NilRegistry(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
