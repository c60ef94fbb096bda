//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	auditapp "github.com/zeniva/backend/internal/application/audit"
	commissionapp "github.com/zeniva/backend/internal/application/commission"
	identityapp "github.com/zeniva/backend/internal/application/identity"
	ledgerapp "github.com/zeniva/backend/internal/application/ledger"
	tripapp "github.com/zeniva/backend/internal/application/trip"
	"github.com/zeniva/backend/internal/domain/commission"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/infrastructure/auth"
	"github.com/zeniva/backend/internal/infrastructure/cache"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"github.com/zeniva/backend/internal/infrastructure/event"
	"github.com/zeniva/backend/internal/infrastructure/persistence"
	"github.com/zeniva/backend/internal/infrastructure/storage"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
	"github.com/zeniva/backend/internal/interfaces/http/handler"
	"github.com/zeniva/backend/internal/interfaces/http/middleware"
	"github.com/zeniva/backend/internal/interfaces/http/router"
	"github.com/zeniva/backend/tests/testutil"
)

const hqPassword = "head-office-2026"

// backOffice is the server wired as in production over the test database
type backOffice struct {
	engine   *gin.Engine
	tenantID uuid.UUID
	accounts *persistence.GormAccountRepository
}

func newBackOffice(t *testing.T, tdb *TestDB) *backOffice {
	t.Helper()
	log := zap.NewNop()
	tenantID := uuid.New()

	cfg := &config.Config{
		App: config.AppConfig{Name: "zeniva", Env: "test"},
		JWT: config.JWTConfig{
			Secret:                 "integration-secret-at-least-32-chars",
			RefreshSecret:          "integration-refresh-secret-32-chars!",
			Issuer:                 "zeniva-test",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
		},
		HTTP:   config.HTTPConfig{MaxBodySize: 1 << 20},
		Cookie: config.CookieConfig{Path: "/", SameSite: "lax"},
	}

	accountRepo := persistence.NewGormAccountRepository(tdb.DB)
	sessionRepo := persistence.NewGormSessionRepository(tdb.DB)
	clientRepo := persistence.NewGormClientRepository(tdb.DB)
	fileRepo := persistence.NewGormFileRepository(tdb.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(tdb.DB)
	auditRepo := persistence.NewGormAuditRepository(tdb.DB)

	bus := event.NewInMemoryEventBus(log)
	recorder := auditapp.NewRecorder(auditRepo, nil, log)
	policy := ledger.DefaultPolicy()
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewInMemoryTokenBlacklist()

	authCfg := identityapp.DefaultAuthServiceConfig()
	authCfg.TenantID = tenantID
	authService := identityapp.NewAuthService(accountRepo, sessionRepo, jwtService, blacklist, bus, recorder, nil, authCfg, log)
	tripService := tripapp.NewService(clientRepo, fileRepo, storage.NewMemoryDocumentStore(), bus, recorder, nil,
		tripapp.DefaultServiceConfig(), log)

	store, err := cache.NewIdempotencyStore(nil, false, log)
	require.NoError(t, err)
	bus.Subscribe(event.NewIdempotentHandler(
		ledgerapp.NewPaymentSettledHandler(fileRepo, clientRepo, ledgerRepo, policy, recorder, nil, log),
		store, log,
		event.WithKeyFunc(ledgerapp.PostingKey),
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}),
	))
	require.NoError(t, bus.Start(t.Context()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	engine := router.NewEngine(router.Dependencies{
		Config:     cfg,
		Logger:     log,
		JWT:        jwtService,
		Blacklist:  blacklist,
		Prometheus: telemetry.NewPrometheus("zeniva_integration_" + uuid.NewString()[:8]),
		Swagger:    func(c *gin.Context) { c.Status(http.StatusNotFound) },
		Handlers: router.Handlers{
			Auth:     handler.NewAuthHandler(authService, cfg.Cookie),
			Accounts: handler.NewAccountHandler(authService),
			Clients:  handler.NewClientHandler(tripService),
			Trips:    handler.NewTripHandler(tripService, 1<<20),
			Reports: handler.NewReportHandler(
				commissionapp.NewService(clientRepo, fileRepo, log),
				ledgerapp.NewService(ledgerRepo),
				auditapp.NewService(auditRepo),
			),
			System: handler.NewSystemHandler("zeniva", "test", nil),
		},
	})
	return &backOffice{engine: engine, tenantID: tenantID, accounts: accountRepo}
}

// seedHQ stores a head office account; nobody can sign up as HQ
func (b *backOffice) seedHQ(t *testing.T, email string) {
	t.Helper()
	acc, err := identity.NewAccount(b.tenantID, email, "Head Office", hqPassword, []string{"hq"})
	require.NoError(t, err)
	require.NoError(t, b.accounts.Create(t.Context(), acc))
}

func (b *backOffice) login(t *testing.T, email, password string) *testutil.APIClient {
	t.Helper()
	client := testutil.NewAPIClient(t, b.engine)
	client.Do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": email, "password": password,
	}).RequireStatus(http.StatusOK)
	return client
}

func TestBackOfficeFlow(t *testing.T) {
	tdb := NewTestDB(t)
	app := newBackOffice(t, tdb)
	fx := testutil.NewFixtures(2026)

	app.seedHQ(t, "hq@zeniva.test")
	hq := app.login(t, "hq@zeniva.test", hqPassword)
	assert.Equal(t, "hq", hq.Cookie(middleware.RolesCookie))
	assert.Equal(t, "agent", hq.Cookie(middleware.ActiveSpaceCookie))

	// agents sign up pending and need HQ approval
	signup := fx.Signup("agent")
	anon := testutil.NewAPIClient(t, app.engine)
	created := testutil.DataAs[identityapp.AccountResponse](t,
		anon.Do(http.MethodPost, "/api/v1/auth/signup", signup).RequireStatus(http.StatusCreated))
	assert.Equal(t, "pending", created.Status)

	anon.Do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": signup.Email, "password": signup.Password,
	}).AssertError(http.StatusForbidden, "ACCOUNT_PENDING")

	hq.Do(http.MethodPost, "/api/v1/accounts/"+created.ID.String()+"/approve", nil).RequireStatus(http.StatusOK)
	agent := app.login(t, signup.Email, signup.Password)
	assert.Equal(t, "travel_agent", agent.Cookie(middleware.RolesCookie))

	// the agent brings in a client and builds the trip
	client := testutil.DataAs[tripapp.ClientResponse](t,
		agent.Do(http.MethodPost, "/api/v1/agent/clients", fx.Client()).RequireStatus(http.StatusCreated))
	file := testutil.DataAs[tripapp.TripResponse](t,
		agent.Do(http.MethodPost, "/api/v1/agent/trips", fx.Trip(client.ID)).RequireStatus(http.StatusCreated))
	tripPath := "/api/v1/agent/trips/" + file.ID.String()

	component := fx.Component("hotel")
	file = testutil.DataAs[tripapp.TripResponse](t,
		agent.Do(http.MethodPost, tripPath+"/components", component).RequireStatus(http.StatusCreated))
	require.Len(t, file.Components, 1)

	report := testutil.DataAs[commissionapp.Report](t,
		agent.Do(http.MethodGet, "/api/v1/agent/commissions", nil).RequireStatus(http.StatusOK))
	require.Len(t, report.Lines, 1)
	assert.Equal(t, identity.NormalizeEmail(signup.Email), report.Lines[0].AgentEmail)
	assert.Equal(t, file.ID, report.Lines[0].TripID)
	assert.NotEmpty(t, report.Lines[0].Bonuses)
	assert.Contains(t, bonusReasons(report.Lines[0]), commission.BonusCreation)

	// HQ settles a payment; the ledger posting happens off the request path
	file = testutil.DataAs[tripapp.TripResponse](t,
		hq.Do(http.MethodPost, tripPath+"/payments", fx.Payment(component.Sell)).RequireStatus(http.StatusCreated))
	require.Len(t, file.Payments, 1)
	paymentID := file.Payments[0].ID
	settle := tripPath + "/payments/" + paymentID.String() + "/status"
	hq.Do(http.MethodPut, settle, map[string]string{"status": "Paid"}).RequireStatus(http.StatusOK)

	ledgerPath := "/api/v1/agent/ledger?payment_id=" + paymentID.String()
	var entries []ledger.Entry
	testutil.RequireEventually(t, func() bool {
		entries = testutil.DataAs[[]ledger.Entry](t, hq.Do(http.MethodGet, ledgerPath, nil))
		return len(entries) > 0
	}, 5*time.Second, 20*time.Millisecond, "payment was never posted")
	for _, e := range entries {
		assert.Equal(t, file.ID, e.TripID)
		assert.Equal(t, paymentID, e.PaymentID)
	}
	posted := len(entries)

	// settling again is a no-op
	hq.Do(http.MethodPut, settle, map[string]string{"status": "Paid"}).RequireStatus(http.StatusOK)
	testutil.AssertNever(t, func() bool {
		return len(testutil.DataAs[[]ledger.Entry](t, hq.Do(http.MethodGet, ledgerPath, nil))) != posted
	}, 200*time.Millisecond, 20*time.Millisecond)

	totals := testutil.DataAs[[]ledger.Total](t,
		hq.Do(http.MethodGet, "/api/v1/agent/ledger/totals?trip_id="+file.ID.String(), nil).RequireStatus(http.StatusOK))
	require.NotEmpty(t, totals)
	sum := decimal.Zero
	for _, total := range totals {
		sum = sum.Add(total.Amount)
	}
	assert.True(t, sum.IsPositive())

	// agents do not read the ledger
	agent.Do(http.MethodGet, ledgerPath, nil).AssertError(http.StatusForbidden, "FORBIDDEN")

	// logout clears the cookies and revokes the access token
	token := agent.Cookie(middleware.AccessTokenKey)
	require.NotEmpty(t, token)
	agent.Do(http.MethodPost, "/api/v1/auth/logout", nil).RequireStatus(http.StatusOK)
	assert.Empty(t, agent.Cookie(middleware.AccessTokenKey))
	agent.WithBearer(token).Do(http.MethodGet, "/api/v1/auth/me", nil).AssertError(http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TestTenantIsolation(t *testing.T) {
	tdb := NewTestDB(t)
	clients := persistence.NewGormClientRepository(tdb.DB)
	fx := testutil.NewFixtures(0)
	ctx := t.Context()

	tenantA, tenantB := uuid.New(), uuid.New()
	in := fx.Client()
	svc := tripapp.NewService(clients, persistence.NewGormFileRepository(tdb.DB), storage.NewMemoryDocumentStore(),
		event.NewInMemoryEventBus(zap.NewNop()), auditapp.NewRecorder(persistence.NewGormAuditRepository(tdb.DB), nil, zap.NewNop()),
		nil, tripapp.DefaultServiceConfig(), zap.NewNop())

	created, err := svc.CreateClient(ctx, testutil.HQPrincipal(tenantA), in)
	require.NoError(t, err)

	_, err = svc.GetClient(ctx, testutil.HQPrincipal(tenantB), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	found, err := svc.GetClient(ctx, testutil.HQPrincipal(tenantA), created.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Name, found.Name)
}

func bonusReasons(l commission.Line) []commission.BonusReason {
	out := make([]commission.BonusReason, len(l.Bonuses))
	for i, b := range l.Bonuses {
		out[i] = b.Reason
	}
	return out
}
