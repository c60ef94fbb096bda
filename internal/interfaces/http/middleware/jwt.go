package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/infrastructure/auth"
	"github.com/zeniva/backend/internal/infrastructure/logger"
	"github.com/zeniva/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	PrincipalKey   = "principal"
	AccountIDKey   = "account_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	AccessTokenKey = "zeniva_access_token"
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService, blacklist auth.TokenBlacklist, log *zap.Logger) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})
}

// JWTAuthMiddlewareWithConfig authenticates the access token from the
// Authorization header or, for browser calls, the access token cookie. The
// caller is stored as an identity.Principal for the handlers.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		token, ok := extractToken(c)
		if !ok {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing access token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()

			// A failing blacklist store lets the request through
			revoked, err := cfg.TokenBlacklist.IsRevoked(ctx, claims.ID)
			if err != nil {
				cfg.Logger.Error("failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
			} else if revoked {
				handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Token has been revoked")
				return
			}

			var issuedAt time.Time
			if claims.IssuedAt != nil {
				issuedAt = claims.IssuedAt.Time
			}
			revoked, err = cfg.TokenBlacklist.IsAccountRevoked(ctx, claims.AccountID, issuedAt)
			if err != nil {
				cfg.Logger.Error("failed to check account revocation", zap.String("account_id", claims.AccountID), zap.Error(err))
			} else if revoked {
				handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Account session has been invalidated")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(PrincipalKey, claims.Principal())
		c.Set(AccountIDKey, claims.AccountID)

		ctx := logger.WithTenantID(c.Request.Context(), claims.TenantID)
		ctx = logger.WithAccountID(ctx, claims.AccountID)
		ctx = logger.WithSessionID(ctx, claims.SessionID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		token, found := strings.CutPrefix(header, BearerPrefix)
		return token, found && token != ""
	}
	token, err := c.Cookie(AccessTokenKey)
	return token, err == nil && token != ""
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	cfg.Logger.Debug("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code = dto.ErrCodeTokenRevoked
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		code = dto.ErrCodeTokenInvalid
	}
	abortWithError(c, http.StatusUnauthorized, code, message)
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetPrincipal returns the authenticated caller
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(identity.Principal); ok {
			return p, true
		}
	}
	return identity.Principal{}, false
}
