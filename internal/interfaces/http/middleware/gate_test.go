package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/zeniva/backend/internal/domain/identity"
)

func rolePtr(r identity.Role) *identity.Role { return &r }

func TestDecideGate(t *testing.T) {
	tests := []struct {
		name     string
		in       GateInput
		allowed  bool
		status   int
		location string
	}{
		{
			name:     "anonymous page view goes to login",
			in:       GateInput{Space: identity.SpaceAgent, Method: http.MethodGet, Path: "/agent/trips"},
			status:   http.StatusFound,
			location: "/login?next=%2Fagent%2Ftrips",
		},
		{
			name:   "anonymous post is refused",
			in:     GateInput{Space: identity.SpaceAgent, Method: http.MethodPost, Path: "/agent/trips"},
			status: http.StatusForbidden,
		},
		{
			name:    "agent enters agent space",
			in:      GateInput{Space: identity.SpaceAgent, Method: http.MethodGet, Path: "/agent", Roles: []identity.Role{identity.RoleTravelAgent}},
			allowed: true,
			status:  http.StatusOK,
		},
		{
			name:    "partner staff enters partner space",
			in:      GateInput{Space: identity.SpacePartner, Method: http.MethodGet, Path: "/partner", Roles: []identity.Role{identity.RolePartnerStaff}},
			allowed: true,
			status:  http.StatusOK,
		},
		{
			name:    "any known role enters traveler space",
			in:      GateInput{Space: identity.SpaceTraveler, Method: http.MethodGet, Path: "/traveler", Roles: []identity.Role{identity.RoleInfluencer}},
			allowed: true,
			status:  http.StatusOK,
		},
		{
			name:     "traveler is sent home from agent pages",
			in:       GateInput{Space: identity.SpaceAgent, Method: http.MethodGet, Path: "/agent/trips", Roles: []identity.Role{identity.RoleTraveler}},
			status:   http.StatusFound,
			location: "/traveler",
		},
		{
			name:     "partner owner is sent to partner home",
			in:       GateInput{Space: identity.SpaceAgent, Method: http.MethodGet, Path: "/agent", Roles: []identity.Role{identity.RolePartnerOwner}},
			status:   http.StatusFound,
			location: "/partner",
		},
		{
			name:   "api call from the wrong space gets 403",
			in:     GateInput{Space: identity.SpaceAgent, Method: http.MethodGet, Path: "/api/v1/agent/trips", API: true, Roles: []identity.Role{identity.RoleTraveler}},
			status: http.StatusForbidden,
		},
		{
			name:     "effective role overrides stored roles",
			in:       GateInput{Space: identity.SpacePartner, Method: http.MethodGet, Path: "/partner", Roles: []identity.Role{identity.RoleHQ}, EffectiveRole: rolePtr(identity.RoleTravelAgent)},
			status:   http.StatusFound,
			location: "/agent",
		},
		{
			name:    "hq enters partner space",
			in:      GateInput{Space: identity.SpacePartner, Method: http.MethodGet, Path: "/partner", Roles: []identity.Role{identity.RoleHQ}},
			allowed: true,
			status:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecideGate(tt.in)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.location, d.Location)
		})
	}
}

func gateRouter() *gin.Engine {
	router := gin.New()
	router.GET("/agent/*path", SpaceGate(identity.SpaceAgent), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/agent/*path", SpaceGate(identity.SpaceAgent), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/agent/*path", SpaceGate(identity.SpaceAgent), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestSpaceGate_Cookies(t *testing.T) {
	t.Run("roles cookie admits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/agent/clients", nil)
		req.AddCookie(&http.Cookie{Name: RolesCookie, Value: "traveler,agent"})
		w := httptest.NewRecorder()
		gateRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no cookie redirects to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		gateRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agent/clients", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?next=%2Fagent%2Fclients", w.Header().Get("Location"))
	})

	t.Run("effective role cookie narrows access", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/agent/clients", nil)
		req.AddCookie(&http.Cookie{Name: RolesCookie, Value: "hq"})
		req.AddCookie(&http.Cookie{Name: EffectiveRoleCookie, Value: "traveler"})
		w := httptest.NewRecorder()
		gateRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/traveler", w.Header().Get("Location"))
	})

	t.Run("api request gets json 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/trips", nil)
		req.AddCookie(&http.Cookie{Name: RolesCookie, Value: "partner_owner"})
		w := httptest.NewRecorder()
		gateRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	})

	t.Run("principal wins over cookies", func(t *testing.T) {
		router := gin.New()
		agent := agentPrincipal()
		router.GET("/api/v1/agent/trips", func(c *gin.Context) { c.Set(PrincipalKey, agent) }, SpaceGate(identity.SpaceAgent), func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/trips", nil)
		req.AddCookie(&http.Cookie{Name: RolesCookie, Value: "traveler"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSameSite(t *testing.T) {
	router := gin.New()
	router.Use(SameSite())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		status  int
	}{
		{"safe method is never checked", http.MethodGet, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusOK},
		{"same-origin fetch", http.MethodPost, map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusOK},
		{"same-site fetch", http.MethodPost, map[string]string{"Sec-Fetch-Site": "same-site"}, http.StatusOK},
		{"user initiated", http.MethodPost, map[string]string{"Sec-Fetch-Site": "none"}, http.StatusOK},
		{"cross-site fetch", http.MethodPost, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
		{"matching origin", http.MethodPost, map[string]string{"Origin": "http://example.com"}, http.StatusOK},
		{"foreign origin", http.MethodPost, map[string]string{"Origin": "https://evil.test"}, http.StatusForbidden},
		{"matching referer", http.MethodPost, map[string]string{"Referer": "http://example.com/agent/trips"}, http.StatusOK},
		{"no source at all", http.MethodPost, nil, http.StatusForbidden},
		{"bearer calls are exempt", http.MethodPost, map[string]string{"Authorization": "Bearer x", "Origin": "https://evil.test"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/x", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
