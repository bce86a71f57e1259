package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// setRequiredEnv provides the two values without which loading fails.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PLACES_AUTH_JWKS_URL", "https://login.example.com/discovery/keys")
	t.Setenv("PLACES_AUTH_AUDIENCE", "api://places.cluster.azure.ludimus.de")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://login.example.com/discovery/keys", cfg.Auth.KeyStore.JWKSURL)
	assert.Equal(t, "api://places.cluster.azure.ludimus.de", cfg.Auth.Validator.Audience)
}

func TestLoad_MissingRequiredValues(t *testing.T) {
	t.Setenv("PLACES_AUTH_JWKS_URL", "")
	t.Setenv("PLACES_AUTH_AUDIENCE", "")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidationRequired))
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PLACES_SERVER_PORT", "9090")
	t.Setenv("PLACES_LOG_LEVEL", "debug")
	t.Setenv("PLACES_POSTGRES_HOST", "pg.internal")
	t.Setenv("PLACES_POSTGRES_PASSWORD", "s3cret")
	t.Setenv("PLACES_REDIS_ENABLED", "true")
	t.Setenv("PLACES_REDIS_HOST", "cache.internal")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pg.internal", cfg.Postgres.Host)
	assert.Equal(t, "s3cret", string(cfg.Postgres.Password))
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9001
  host: 127.0.0.1
log:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PLACES_SERVER_PORT", "9002")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9002, cfg.Server.Port, "env must win over the file")
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "file must win over the default")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFileIsOptional(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestConfig_Validate(t *testing.T) {
	setRequiredEnv(t)

	tests := []struct {
		name   string
		env    map[string]string
		wantOK bool
	}{
		{name: "valid", env: nil, wantOK: true},
		{name: "port zero", env: map[string]string{"PLACES_SERVER_PORT": "0"}, wantOK: false},
		{name: "port too large", env: map[string]string{"PLACES_SERVER_PORT": "70000"}, wantOK: false},
		{name: "bad log level", env: map[string]string{"PLACES_LOG_LEVEL": "verbose"}, wantOK: false},
		{name: "bad log format", env: map[string]string{"PLACES_LOG_FORMAT": "xml"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, apperr.IsValidation(err))
			}
		})
	}
}
