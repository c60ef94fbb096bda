package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditapp "github.com/zeniva/backend/internal/application/audit"
	commissionapp "github.com/zeniva/backend/internal/application/commission"
	identityapp "github.com/zeniva/backend/internal/application/identity"
	ledgerapp "github.com/zeniva/backend/internal/application/ledger"
	tripapp "github.com/zeniva/backend/internal/application/trip"
	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/infrastructure/auth"
	"github.com/zeniva/backend/internal/infrastructure/cache"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"github.com/zeniva/backend/internal/infrastructure/event"
	"github.com/zeniva/backend/internal/infrastructure/logger"
	"github.com/zeniva/backend/internal/infrastructure/migration"
	"github.com/zeniva/backend/internal/infrastructure/persistence"
	"github.com/zeniva/backend/internal/infrastructure/scheduler"
	"github.com/zeniva/backend/internal/infrastructure/storage"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
	"github.com/zeniva/backend/internal/interfaces/http/handler"
	"github.com/zeniva/backend/internal/interfaces/http/router"

	_ "github.com/zeniva/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Zeniva Back Office API
//	@version		1.0
//	@description	Back office of the Zeniva travel agency: accounts and spaces, clients, trip files, pricing, payments, commissions, ledger and audit.

//	@contact.name	Zeniva Engineering
//	@contact.email	engineering@zeniva.travel

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}". Browsers use the session cookie instead.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting Zeniva back office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	log.Info("Telemetry started",
		zap.Bool("tracing", tel.Tracer.IsEnabled()),
		zap.Bool("profiling", tel.Profiler.IsEnabled()),
		zap.Bool("span_profiles", tel.Tracer.SpanProfilesEnabled()),
	)
	prom := tel.Prometheus

	db := openDatabase(cfg, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := prom.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Failed to export database pool metrics", zap.Error(err))
		}
	}

	// Redis is optional; without it revocations and ledger keys live in memory
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	switch {
	case errors.Is(err, cache.ErrRedisDisabled):
		log.Info("Redis not configured, using in-memory stores")
	case err != nil:
		log.Warn("Redis unavailable, using in-memory stores", zap.Error(err))
		redisClient = nil
	default:
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	idempotencyStore, err := cache.NewIdempotencyStore(redisClient, false, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	documents, err := storage.NewDocumentStore(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}

	tenantID, err := uuid.Parse(cfg.App.DefaultTenantID)
	if err != nil {
		log.Fatal("Invalid app.default_tenant_id", zap.Error(err))
	}

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	fileRepo := persistence.NewGormFileRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)
	recorder := auditapp.NewRecorder(auditRepo, tel.Business, log)
	policy := ledger.Policy{AgentPct: decimal.NewFromFloat(cfg.Ledger.AgentPct)}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(
		accountRepo, sessionRepo, jwtService, blacklist, eventBus, recorder, tel.Business,
		identityapp.AuthServiceConfig{
			TenantID:         tenantID,
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockDuration:     cfg.Auth.LockoutDuration,
			SessionTTL:       cfg.Auth.SessionTTL,
		},
		log,
	)
	tripService := tripapp.NewService(
		clientRepo, fileRepo, documents, eventBus, recorder, tel.Business,
		tripapp.ServiceConfig{
			Policy:            policy,
			DownloadURLExpiry: time.Hour,
			MaxUploadSize:     cfg.Storage.MaxUploadSize,
		},
		log,
	)
	commissionService := commissionapp.NewService(clientRepo, fileRepo, log)
	ledgerService := ledgerapp.NewService(ledgerRepo)
	auditService := auditapp.NewService(auditRepo)

	// Settled payments are posted to the ledger once per payment
	posting := event.NewIdempotentHandler(
		ledgerapp.NewPaymentSettledHandler(fileRepo, clientRepo, ledgerRepo, policy, recorder, tel.Business, log),
		idempotencyStore,
		log,
		event.WithKeyFunc(ledgerapp.PostingKey),
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Ledger.IdempotencyTTL, Enabled: true}),
	)
	eventBus.Subscribe(posting)
	registerPostingMetrics(prom, posting.Metrics(), log)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	purge := scheduler.NewSessionPurgeScheduler(sessionRepo, log, scheduler.SessionPurgeConfig{
		Enabled:         cfg.Scheduler.Enabled,
		IntervalMinutes: cfg.Scheduler.SessionPurgeInterval,
		Retention:       cfg.Scheduler.SessionRetention,
		Timeout:         time.Minute,
	})
	if err := purge.Start(ctx); err != nil {
		log.Fatal("Failed to start session purge scheduler", zap.Error(err))
	}
	defer func() { _ = purge.Stop(context.Background()) }()

	engine := router.NewEngine(router.Dependencies{
		Config:     cfg,
		Logger:     log,
		JWT:        jwtService,
		Blacklist:  blacklist,
		Prometheus: prom,
		Swagger:    ginSwagger.WrapHandler(swaggerFiles.Handler),
		Handlers: router.Handlers{
			Auth:     handler.NewAuthHandler(authService, cfg.Cookie),
			Accounts: handler.NewAccountHandler(authService),
			Clients:  handler.NewClientHandler(tripService),
			Trips:    handler.NewTripHandler(tripService, cfg.Storage.MaxUploadSize),
			Reports:  handler.NewReportHandler(commissionService, ledgerService, auditService),
			System:   handler.NewSystemHandler(cfg.App.Name, version, healthChecks(db, redisClient)),
		},
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// openDatabase connects and brings the schema up to date: embedded
// migrations on postgres, AutoMigrate on sqlite.
func openDatabase(cfg *config.Config, log *zap.Logger) *persistence.Database {
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.GormLevel))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      !cfg.IsProduction(),
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        db.Driver,
	}, log)
	if err := tracing.Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
		log.Info("Database connected", zap.String("driver", db.Driver), zap.String("path", cfg.Database.SQLitePath))
		return db
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	migrator, err := migration.New(sqlDB, "", log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver), zap.String("host", cfg.Database.Host))
	return db
}

func healthChecks(db *persistence.Database, redisClient *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// registerPostingMetrics exports the ledger posting outcomes
func registerPostingMetrics(prom *telemetry.Prometheus, m *event.IdempotencyMetrics, log *zap.Logger) {
	outcomes := map[string]func() int64{
		"processed": m.Processed.Load,
		"duplicate": m.Duplicate.Load,
		"failed":    m.Failed.Load,
	}
	for outcome, load := range outcomes {
		err := prom.RegisterCounterFunc("zeniva", "ledger_postings_total",
			"Settled payment events handled by the ledger posting handler.",
			prometheus.Labels{"outcome": outcome},
			func() float64 { return float64(load()) },
		)
		if err != nil {
			log.Warn("Failed to register posting metric", zap.String("outcome", outcome), zap.Error(err))
		}
	}
}
