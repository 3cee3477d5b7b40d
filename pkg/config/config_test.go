package config_test

import (
	"testing"
	"time"

	"github.com/staffdesk/staffdesk-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("STAFFDESK_JWT_SECRET", "")

	_, err := config.Load("api-server")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STAFFDESK_JWT_SECRET")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STAFFDESK_JWT_SECRET", "test-secret")

	cfg, err := config.Load("api-server")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "staffdesk", cfg.JWT.Issuer)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STAFFDESK_JWT_SECRET", "test-secret")
	t.Setenv("STAFFDESK_SERVER_PORT", "9090")
	t.Setenv("STAFFDESK_DATABASE_HOST", "db.internal")

	cfg, err := config.Load("api-server")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoad_ProductionRejectsLocalhostDatabase(t *testing.T) {
	t.Setenv("STAFFDESK_JWT_SECRET", "test-secret")
	t.Setenv("STAFFDESK_SERVER_ENVIRONMENT", "production")

	_, err := config.Load("api-server")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STAFFDESK_DATABASE_HOST")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "staffdesk",
		Password: "devpassword",
		Database: "staffdesk",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=staffdesk password=devpassword dbname=staffdesk sslmode=disable",
		cfg.DSN(),
	)
}
