package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidProduction(t *testing.T) {
	t.Setenv("ZENIVA_APP_ENV", "production")
	t.Setenv("ZENIVA_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
	t.Setenv("ZENIVA_DATABASE_PASSWORD", "secure-password")
	t.Setenv("ZENIVA_DATABASE_SSLMODE", "require")
	t.Setenv("ZENIVA_COOKIE_SECURE", "true")
	t.Setenv("ZENIVA_SWAGGER_ENABLED", "false")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "zeniva-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "zeniva", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 0.2, cfg.Ledger.AgentPct)
	assert.Equal(t, 7*24*time.Hour, cfg.Ledger.IdempotencyTTL)
	assert.Equal(t, "lax", cfg.Cookie.SameSite)
	assert.Empty(t, cfg.Redis.Addr())
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
	assert.False(t, cfg.Telemetry.Profiling.Enabled)
	assert.Equal(t, "zeniva-backend", cfg.Telemetry.Profiling.ApplicationName)
	assert.Contains(t, cfg.Telemetry.Profiling.ProfileTypes, "cpu")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ZENIVA_APP_PORT", "9000")
	t.Setenv("ZENIVA_DATABASE_HOST", "db.internal")
	t.Setenv("ZENIVA_DATABASE_PORT", "5433")
	t.Setenv("ZENIVA_REDIS_HOST", "cache")
	t.Setenv("ZENIVA_LEDGER_AGENT_PCT", "0.15")
	t.Setenv("ZENIVA_STORAGE_BUCKET", "trip-docs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 0.15, cfg.Ledger.AgentPct)
	assert.Equal(t, "trip-docs", cfg.Storage.Bucket)
}

func TestLoad_ProfilingFromEnv(t *testing.T) {
	t.Setenv("ZENIVA_TELEMETRY_PROFILING_ENABLED", "true")
	t.Setenv("ZENIVA_TELEMETRY_PROFILING_SERVER_ADDRESS", "http://pyroscope:4040")
	t.Setenv("ZENIVA_TELEMETRY_PROFILING_SPAN_PROFILES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Profiling.Enabled)
	assert.Equal(t, "http://pyroscope:4040", cfg.Telemetry.Profiling.ServerAddress)
	assert.True(t, cfg.Telemetry.Profiling.SpanProfiles)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ZENIVA_APP_NAME=from-dotenv\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("ZENIVA_APP_NAME")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.App.Name)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"idle exceeds open", map[string]string{"ZENIVA_DATABASE_MAX_OPEN_CONNS": "10", "ZENIVA_DATABASE_MAX_IDLE_CONNS": "20"}, "cannot exceed"},
		{"unknown driver", map[string]string{"ZENIVA_DATABASE_DRIVER": "mysql"}, "database.driver"},
		{"bad same site", map[string]string{"ZENIVA_COOKIE_SAME_SITE": "sometimes"}, "cookie.same_site"},
		{"same site none without secure", map[string]string{"ZENIVA_COOKIE_SAME_SITE": "none"}, "requires cookie.secure"},
		{"agent pct out of range", map[string]string{"ZENIVA_LEDGER_AGENT_PCT": "1.5"}, "ledger.agent_pct"},
		{"sampling out of range", map[string]string{"ZENIVA_TELEMETRY_SAMPLING_RATIO": "2"}, "sampling_ratio"},
		{"profiling without server", map[string]string{"ZENIVA_TELEMETRY_PROFILING_ENABLED": "true"}, "profiling.server_address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("valid production config", func(t *testing.T) {
		setValidProduction(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"short jwt secret", "ZENIVA_JWT_SECRET", "short", "jwt.secret"},
		{"ssl disabled", "ZENIVA_DATABASE_SSLMODE", "disable", "sslmode"},
		{"insecure cookie", "ZENIVA_COOKIE_SECURE", "false", "cookie.secure"},
		{"sqlite driver", "ZENIVA_DATABASE_DRIVER", "sqlite", "must be postgres"},
		{"wildcard cors", "ZENIVA_HTTP_CORS_ALLOW_ORIGINS", "*", "cors_allow_origins"},
		{"open swagger", "ZENIVA_SWAGGER_ENABLED", "true", "swagger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProduction(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass@word#123",
		DBName:   "zeniva",
		SSLMode:  "disable",
	}
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "pass%40word%23123")
	assert.Contains(t, dsn, "sslmode=disable")
}
