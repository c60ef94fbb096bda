package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	auditapp "github.com/zeniva/backend/internal/application/audit"
	identityapp "github.com/zeniva/backend/internal/application/identity"
	tripapp "github.com/zeniva/backend/internal/application/trip"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/infrastructure/auth"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"github.com/zeniva/backend/internal/infrastructure/event"
	"github.com/zeniva/backend/internal/infrastructure/persistence"
	"github.com/zeniva/backend/internal/infrastructure/storage"
	"github.com/zeniva/backend/internal/interfaces/http/middleware"
)

// testApp wires the real services over an in-memory sqlite database
type testApp struct {
	tenantID uuid.UUID
	jwt      *auth.JWTService
	auth     *identityapp.AuthService
	trips    *tripapp.Service
	docs     *storage.MemoryDocumentStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zap.NewNop()
	tenantID := uuid.New()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-at-least-32-chars",
		RefreshSecret:          "handler-test-refresh-secret-32-chars",
		Issuer:                 "zeniva-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
	bus := event.NewInMemoryEventBus(log)
	recorder := auditapp.NewRecorder(persistence.NewGormAuditRepository(db.DB), nil, log)
	docs := storage.NewMemoryDocumentStore()

	authCfg := identityapp.DefaultAuthServiceConfig()
	authCfg.TenantID = tenantID
	return &testApp{
		tenantID: tenantID,
		jwt:      jwtService,
		auth: identityapp.NewAuthService(
			persistence.NewGormAccountRepository(db.DB),
			persistence.NewGormSessionRepository(db.DB),
			jwtService, auth.NewInMemoryTokenBlacklist(), bus, recorder, nil, authCfg, log,
		),
		trips: tripapp.NewService(
			persistence.NewGormClientRepository(db.DB),
			persistence.NewGormFileRepository(db.DB),
			docs, bus, recorder, nil, tripapp.DefaultServiceConfig(), log,
		),
		docs: docs,
	}
}

func jsonRequest(method, path string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	blacklist := auth.NewInMemoryTokenBlacklist()
	h := NewAuthHandler(app.auth, config.CookieConfig{Path: "/"})

	router := gin.New()
	router.POST("/auth/signup", h.Signup)
	router.POST("/auth/login", h.Login)
	session := router.Group("/auth", middleware.JWTAuthMiddleware(app.jwt, blacklist, zap.NewNop()))
	session.GET("/me", h.Me)
	session.POST("/logout", h.Logout)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/signup", map[string]any{
		"email": "lea@example.com", "name": "Léa", "password": "voyage-2026", "space": "traveler",
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("duplicate signup conflicts", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/signup", map[string]any{
			"email": "LEA@example.com", "name": "Léa", "password": "voyage-2026", "space": "traveler",
		}))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/login", map[string]any{
			"email": "lea@example.com", "password": "wrong-password",
		}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Header().Values("Set-Cookie"))
	})

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/login", map[string]any{
		"email": "lea@example.com", "password": "voyage-2026",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := responseCookies(w)
	assert.Equal(t, "traveler", cookies[middleware.RolesCookie].Value)
	assert.Equal(t, "traveler", cookies[middleware.ActiveSpaceCookie].Value)
	access := cookies[middleware.AccessTokenKey]
	require.NotNil(t, access)

	// the access cookie authenticates browser calls
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenKey, Value: access.Value})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"active_space":"traveler"`)

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for name, c := range responseCookies(w) {
		assert.Empty(t, c.Value, name)
	}
}

func TestTripHandler_UploadDocument(t *testing.T) {
	app := newTestApp(t)
	hq := identity.Principal{
		TenantID:    app.tenantID,
		AccountID:   uuid.New(),
		Email:       "hq@zeniva.test",
		Roles:       []identity.Role{identity.RoleHQ},
		ActiveSpace: identity.SpaceAgent,
	}
	ctx := t.Context()
	client, err := app.trips.CreateClient(ctx, hq, tripapp.CreateClientInput{Name: "Famille Martin"})
	require.NoError(t, err)
	trip, err := app.trips.CreateTrip(ctx, hq, tripapp.CreateTripInput{ClientID: client.ID, Title: "Tokyo in spring"})
	require.NoError(t, err)

	h := NewTripHandler(app.trips, 1024)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(middleware.PrincipalKey, hq) })
	router.POST("/trips/:id/documents", h.UploadDocument)
	router.GET("/trips/:id/documents", h.ListDocuments)

	upload := func(name, contentType string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part := textproto.MIMEHeader{}
		part.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		if contentType != "" {
			part.Set("Content-Type", contentType)
		}
		fw, err := mw.CreatePart(part)
		require.NoError(t, err)
		_, _ = fw.Write(content)
		require.NoError(t, mw.WriteField("kind", "voucher"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/documents", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("content type is sniffed from octet-stream", func(t *testing.T) {
		w := upload("voucher.pdf", "application/octet-stream", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "application/pdf", data["content_type"])
		assert.Equal(t, "voucher", data["kind"])
		assert.NotEmpty(t, data["download_url"])
	})

	t.Run("script disguised as octet-stream is refused", func(t *testing.T) {
		w := upload("invoice.pdf", "application/octet-stream", []byte("<html><script>alert(1)</script></html>"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_CONTENT_TYPE", decodeResponse(t, w).Error.Code)
	})

	t.Run("declared content type is not trusted", func(t *testing.T) {
		w := upload("itinerary.pdf", "application/pdf", []byte("<html><body onload=alert(1)></body></html>"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_CONTENT_TYPE", decodeResponse(t, w).Error.Code)
	})

	t.Run("oversized upload", func(t *testing.T) {
		w := upload("scan.png", "image/png", bytes.Repeat([]byte{0x89}, 2048))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/documents", strings.NewReader(""))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trips/"+trip.ID.String()+"/documents", nil))
	require.Equal(t, http.StatusOK, w.Code)
	docs := decodeResponse(t, w).Data.([]any)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, app.docs.Len(), "refused uploads leave nothing in storage")
}
