package router

import (
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/infrastructure/auth"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"github.com/zeniva/backend/internal/infrastructure/logger"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
	"github.com/zeniva/backend/internal/interfaces/http/handler"
	"github.com/zeniva/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted by the engine
type Handlers struct {
	Auth     *handler.AuthHandler
	Accounts *handler.AccountHandler
	Clients  *handler.ClientHandler
	Trips    *handler.TripHandler
	Reports  *handler.ReportHandler
	System   *handler.SystemHandler
}

// Dependencies wires the engine. Prometheus and Swagger may be nil.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	JWT        *auth.JWTService
	Blacklist  auth.TokenBlacklist
	Prometheus *telemetry.Prometheus
	Swagger    gin.HandlerFunc
	Handlers   Handlers
}

// NewEngine builds the gin engine with the global middleware stack, the
// infrastructure endpoints, the gated page trees and the /api/v1 routes.
func NewEngine(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()
	// document uploads carry the file plus multipart overhead
	bodyLimit := max(cfg.HTTP.MaxBodySize, cfg.Storage.MaxUploadSize+1<<20)

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.HTTPMetrics(deps.Prometheus),
		middleware.Secure(security),
		middleware.CORS(cfg.HTTP),
		middleware.BodyLimit(bodyLimit),
	)

	engine.GET("/health", deps.Handlers.System.Health)
	if deps.Prometheus != nil {
		engine.GET("/metrics", gin.WrapH(deps.Prometheus.Handler()))
	}
	if deps.Swagger != nil {
		engine.GET("/swagger/*any", middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}), deps.Swagger)
	}

	registerPages(engine)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(apiGroups(deps)...)
	r.Setup()
	return engine
}

// registerPages mounts the page trees behind the cookie gate
func registerPages(engine *gin.Engine) {
	for _, space := range []identity.Space{identity.SpaceAgent, identity.SpacePartner, identity.SpaceTraveler} {
		pages := handler.NewPageHandler(space)
		group := engine.Group(space.HomePath(), middleware.SameSite(), middleware.SpaceGate(space))
		group.GET("/*path", pages.Serve)
	}
}

func (deps Dependencies) authenticated() gin.HandlerFunc {
	return middleware.JWTAuthMiddleware(deps.JWT, deps.Blacklist, deps.Logger)
}

// apiGroups builds the /api/v1 domain groups
func apiGroups(deps Dependencies) []RouteRegistrar {
	h := deps.Handlers
	cfg := deps.Config
	jwt := deps.authenticated()
	perm := middleware.RequirePermission

	// Public auth endpoints share one limiter keyed by client IP
	authRoutes := NewDomainGroup("auth", "/auth")
	public := []gin.HandlerFunc{}
	if cfg.HTTP.AuthRateLimitEnabled {
		limiter := middleware.NewRateLimiter("auth", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		if deps.Prometheus != nil {
			limiter.OnLimited = deps.Prometheus.RateLimited
		}
		public = append(public, middleware.RateLimit(limiter))
	}
	limited := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clone(public), fn)
	}
	authRoutes.POST("/signup", limited(h.Auth.Signup)...)
	authRoutes.POST("/login", limited(h.Auth.Login)...)
	authRoutes.POST("/refresh", limited(h.Auth.Refresh)...)

	session := authRoutes.Group("session", "").Use(jwt, middleware.TracingAttributeInjector(), middleware.SameSite())
	session.POST("/logout", h.Auth.Logout)
	session.GET("/me", h.Auth.Me)
	session.PUT("/effective-role", h.Auth.SetEffectiveRole)
	session.DELETE("/effective-role", h.Auth.ClearEffectiveRole)
	session.PUT("/space", h.Auth.SwitchSpace)

	accounts := NewDomainGroup("accounts", "/accounts").
		Use(jwt, middleware.TracingAttributeInjector(), middleware.SameSite(), perm(identity.PermAccountsManage))
	accounts.GET("", h.Accounts.List)
	accounts.POST("/:id/approve", h.Accounts.Approve)
	accounts.POST("/:id/suspend", h.Accounts.Suspend)
	accounts.PUT("/:id/roles", h.Accounts.UpdateRoles)
	accounts.DELETE("/:id", h.Accounts.Delete)

	agent := NewDomainGroup("agent", "/agent").
		Use(jwt, middleware.TracingAttributeInjector(), middleware.SameSite(), middleware.SpaceGate(identity.SpaceAgent))

	clients := agent.Group("clients", "/clients")
	clients.GET("", perm(identity.PermClientsRead), h.Clients.List)
	clients.POST("", perm(identity.PermClientsWrite), h.Clients.Create)
	clients.GET("/:id", perm(identity.PermClientsRead), h.Clients.Get)
	clients.PUT("/:id", perm(identity.PermClientsWrite), h.Clients.Update)
	clients.POST("/:id/agents", perm(identity.PermClientsWrite), h.Clients.AssignAgent)

	trips := agent.Group("trips", "/trips")
	trips.GET("", perm(identity.PermTripsRead), h.Trips.List)
	trips.POST("", perm(identity.PermTripsWrite), h.Trips.Create)
	trips.GET("/:id", perm(identity.PermTripsRead), h.Trips.Get)
	trips.PUT("/:id", perm(identity.PermTripsWrite), h.Trips.Update)
	trips.PUT("/:id/status", perm(identity.PermTripsWrite), h.Trips.SetStatus)
	trips.POST("/:id/components", perm(identity.PermTripsWrite), h.Trips.AddComponent)
	trips.PUT("/:id/components/:cid", perm(identity.PermTripsWrite), h.Trips.UpdateComponent)
	trips.DELETE("/:id/components/:cid", perm(identity.PermTripsWrite), h.Trips.RemoveComponent)
	trips.GET("/:id/pricing", perm(identity.PermTripsRead), h.Trips.Pricing)
	trips.GET("/:id/split", perm(identity.PermTripsRead), h.Trips.Split)
	trips.POST("/:id/payments", perm(identity.PermPaymentsWrite), h.Trips.AddPayment)
	trips.PUT("/:id/payments/:pid/status", perm(identity.PermPaymentsWrite), h.Trips.SetPaymentStatus)
	trips.POST("/:id/documents", perm(identity.PermDocumentsWrite), h.Trips.UploadDocument)
	trips.GET("/:id/documents", perm(identity.PermTripsRead), h.Trips.ListDocuments)

	agent.GET("/commissions", perm(identity.PermCommissionsRead), h.Reports.Commissions)
	agent.GET("/ledger", perm(identity.PermLedgerRead), h.Reports.Ledger)
	agent.GET("/ledger/totals", perm(identity.PermLedgerRead), h.Reports.LedgerTotals)
	agent.GET("/audit", perm(identity.PermAuditRead), h.Reports.Audit)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.Info)

	return []RouteRegistrar{authRoutes, accounts, agent, system}
}
