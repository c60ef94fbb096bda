package testutil

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/infrastructure/validation"
)

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)
	require.NoError(t, db.Ping(t.Context()))
}

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	mockDB.Mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	var n int
	require.NoError(t, mockDB.DB.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
}

func TestPrincipals(t *testing.T) {
	tenant := TestTenantID()

	hq := HQPrincipal(tenant)
	assert.Equal(t, identity.SpaceAgent, hq.ActiveSpace)
	assert.Equal(t, []identity.Role{identity.RoleHQ}, hq.Roles)

	agent := AgentPrincipal(tenant, "agent@zeniva.test")
	assert.Equal(t, NewTestUUID("agent@zeniva.test"), agent.AccountID)
	assert.Equal(t, tenant, agent.TenantID)

	traveler := TravelerPrincipal(tenant, "lea@example.com")
	assert.Equal(t, identity.SpaceTraveler, traveler.ActiveSpace)
	assert.True(t, traveler.TokenExpiresAt.After(time.Now()))
}

func TestFixtures_AreValid(t *testing.T) {
	f := NewFixtures(42)

	for _, space := range []string{"agent", "partner", "traveler"} {
		in := f.Signup(space)
		require.NoError(t, validation.Struct(in), space)
	}
	client := f.Client()
	require.NoError(t, validation.Struct(client))
	require.NoError(t, validation.Struct(f.Trip(NewTestUUID("client"))))

	c := f.Component("hotel")
	require.NoError(t, validation.Struct(c))
	assert.True(t, c.Sell.GreaterThan(c.Net))

	assert.NotEqual(t, f.Email(), f.Email())
}

func TestFixtures_SeedIsReproducible(t *testing.T) {
	a, b := NewFixtures(7), NewFixtures(7)
	assert.Equal(t, a.Client().Name, b.Client().Name)
}

func TestAPIClient_KeepsCookies(t *testing.T) {
	router := gin.New()
	router.POST("/login", func(c *gin.Context) {
		c.SetCookie("zeniva_roles", "hq,travel_agent", 60, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"ok": true}})
	})
	router.GET("/whoami", func(c *gin.Context) {
		roles, err := c.Cookie("zeniva_roles")
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"roles": roles}})
	})
	router.POST("/logout", func(c *gin.Context) {
		c.SetCookie("zeniva_roles", "", -1, "/", "", false, true)
		c.Status(http.StatusNoContent)
	})

	client := NewAPIClient(t, router)
	client.Do(http.MethodGet, "/whoami", nil).AssertError(http.StatusUnauthorized, "UNAUTHORIZED")

	client.Do(http.MethodPost, "/login", map[string]string{"email": "hq@zeniva.test"}).RequireStatus(http.StatusOK)
	assert.Equal(t, "hq,travel_agent", client.Cookie("zeniva_roles"))

	data := DataAs[map[string]string](t, client.Do(http.MethodGet, "/whoami", nil))
	assert.Equal(t, "hq,travel_agent", data["roles"])

	client.Do(http.MethodPost, "/logout", nil)
	assert.Empty(t, client.Cookie("zeniva_roles"))
}

func TestAPIClient_WithBearer(t *testing.T) {
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": c.GetHeader("Authorization")})
	})

	resp := NewAPIClient(t, router).WithBearer("tok").Do(http.MethodGet, "/", nil)
	assert.Equal(t, "Bearer tok", DataAs[string](t, resp))
}

func TestRequireEventually(t *testing.T) {
	var n atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		n.Store(1)
	}()
	RequireEventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 30*time.Millisecond, 5*time.Millisecond)
}
