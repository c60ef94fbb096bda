package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	identityapp "github.com/zeniva/backend/internal/application/identity"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"github.com/zeniva/backend/internal/interfaces/http/middleware"
)

// RefreshTokenCookie carries the refresh token for browser clients
const RefreshTokenCookie = "zeniva_refresh_token"

// sessionCookies writes the token and gate cookies
type sessionCookies struct {
	cfg config.CookieConfig
}

func sameSiteMode(raw string) http.SameSite {
	switch strings.ToLower(raw) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (s sessionCookies) set(c *gin.Context, name, value string, until time.Time) {
	maxAge := int(time.Until(until).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(sameSiteMode(s.cfg.SameSite))
	c.SetCookie(name, value, maxAge, s.cfg.Path, s.cfg.Domain, s.cfg.Secure, true)
}

func (s sessionCookies) clear(c *gin.Context, name string) {
	c.SetSameSite(sameSiteMode(s.cfg.SameSite))
	c.SetCookie(name, "", -1, s.cfg.Path, s.cfg.Domain, s.cfg.Secure, true)
}

// write stores the issued tokens and the gate view of the session. The gate
// cookies live as long as the refresh token.
func (s sessionCookies) write(c *gin.Context, r *identityapp.AuthResult) {
	s.set(c, middleware.AccessTokenKey, r.AccessToken, r.AccessTokenExpiresAt)
	s.set(c, RefreshTokenCookie, r.RefreshToken, r.RefreshTokenExpiresAt)
	s.set(c, middleware.RolesCookie, strings.Join(r.Account.Roles, ","), r.RefreshTokenExpiresAt)
	s.set(c, middleware.ActiveSpaceCookie, r.Session.ActiveSpace, r.RefreshTokenExpiresAt)
	if r.Session.EffectiveRole != "" {
		s.set(c, middleware.EffectiveRoleCookie, r.Session.EffectiveRole, r.RefreshTokenExpiresAt)
	} else {
		s.clear(c, middleware.EffectiveRoleCookie)
	}
}

func (s sessionCookies) clearAll(c *gin.Context) {
	for _, name := range []string{
		middleware.AccessTokenKey,
		RefreshTokenCookie,
		middleware.RolesCookie,
		middleware.ActiveSpaceCookie,
		middleware.EffectiveRoleCookie,
	} {
		s.clear(c, name)
	}
}
