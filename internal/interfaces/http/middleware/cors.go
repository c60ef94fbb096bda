package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/zeniva/backend/internal/infrastructure/config"
)

// CORS builds the cross-origin policy from the HTTP config. Credentials are
// allowed since the session travels in cookies, which rules out the "*"
// origin; with no origins configured cross-origin requests get no headers.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	origins := slices.DeleteFunc(slices.Clone(cfg.CORSAllowOrigins), func(o string) bool { return o == "*" || o == "" })
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	corsCfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     cfg.CORSAllowMethods,
		AllowHeaders:     cfg.CORSAllowHeaders,
		ExposeHeaders:    []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowMethods) == 0 {
		corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(corsCfg.AllowHeaders) == 0 {
		corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	}
	return cors.New(corsCfg)
}
