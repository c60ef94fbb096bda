package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/interfaces/http/dto"
)

// Cookies read by the route gate. The auth handler writes them on login and
// every session change.
const (
	RolesCookie         = "zeniva_roles"
	ActiveSpaceCookie   = "zeniva_active_space"
	EffectiveRoleCookie = "zeniva_effective_role"

	// LoginPath is where anonymous page requests are sent
	LoginPath = "/login"
)

// GateInput is what a gate decision is made from
type GateInput struct {
	Space         identity.Space
	Method        string
	Path          string
	API           bool
	Roles         []identity.Role
	EffectiveRole *identity.Role
	ActiveSpace   identity.Space
}

// GateDecision is the outcome of a gate check. Location is set for redirects.
type GateDecision struct {
	Allowed  bool
	Status   int
	Location string
}

// DecideGate applies the space rules. Without roles, safe requests go to the
// login page and the rest are refused. Roles that may not enter the space
// send pages to the home of a space they can use and refuse API calls.
func DecideGate(in GateInput) GateDecision {
	if len(in.Roles) == 0 && in.EffectiveRole == nil {
		if isSafeMethod(in.Method) && !in.API {
			return GateDecision{Status: http.StatusFound, Location: LoginPath + "?next=" + url.QueryEscape(in.Path)}
		}
		return GateDecision{Status: http.StatusForbidden}
	}

	acting := in.Roles
	if in.EffectiveRole != nil {
		acting = []identity.Role{*in.EffectiveRole}
	}
	if in.Space.AllowsAny(acting) {
		return GateDecision{Allowed: true, Status: http.StatusOK}
	}
	if in.API {
		return GateDecision{Status: http.StatusForbidden}
	}

	home := identity.DefaultSpace(acting)
	if in.ActiveSpace != "" && in.ActiveSpace != in.Space && in.ActiveSpace.AllowsAny(acting) {
		home = in.ActiveSpace
	}
	if !home.AllowsAny(acting) {
		return GateDecision{Status: http.StatusForbidden}
	}
	return GateDecision{Status: http.StatusFound, Location: home.HomePath()}
}

// GateInputFrom builds the gate input for a request. The authenticated
// principal is used when present, the gate cookies otherwise.
func GateInputFrom(c *gin.Context, space identity.Space, path string) GateInput {
	in := GateInput{
		Space:  space,
		Method: c.Request.Method,
		Path:   path,
		API:    strings.HasPrefix(path, "/api/"),
	}
	if p, ok := GetPrincipal(c); ok {
		in.Roles = p.Roles
		in.EffectiveRole = p.EffectiveRole
		in.ActiveSpace = p.ActiveSpace
		return in
	}

	if raw, err := c.Cookie(RolesCookie); err == nil {
		in.Roles = identity.NormalizeRoles(strings.Split(raw, ","))
	}
	if raw, err := c.Cookie(EffectiveRoleCookie); err == nil {
		if r, ok := identity.NormalizeRole(raw); ok {
			in.EffectiveRole = &r
		}
	}
	if raw, err := c.Cookie(ActiveSpaceCookie); err == nil {
		if s, ok := identity.ParseSpace(raw); ok {
			in.ActiveSpace = s
		}
	}
	return in
}

// SpaceGate guards a route tree of the given space
func SpaceGate(space identity.Space) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := DecideGate(GateInputFrom(c, space, c.Request.URL.Path))
		if d.Allowed {
			c.Next()
			return
		}
		if d.Location != "" {
			c.Redirect(d.Status, d.Location)
			c.Abort()
			return
		}
		abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Your role cannot access the "+string(space)+" space")
	}
}

// SameSite refuses state-changing requests coming from another site.
// Sec-Fetch-Site decides when sent; otherwise the Origin, or failing that the
// Referer, must name the request host. Bearer-authenticated calls carry no
// ambient credentials and are not checked.
func SameSite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) || c.GetHeader(AuthHeaderKey) != "" {
			c.Next()
			return
		}
		if !sameSiteRequest(c.Request) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeCrossSite, "Cross-site request refused")
			return
		}
		c.Next()
	}
}

func sameSiteRequest(r *http.Request) bool {
	if site := r.Header.Get("Sec-Fetch-Site"); site != "" {
		switch site {
		case "same-origin", "same-site", "none":
			return true
		}
		return false
	}
	source := r.Header.Get("Origin")
	if source == "" || source == "null" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return false
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
