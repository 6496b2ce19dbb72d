package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 5, cfg.Popularity.TopDefault)
	assert.Equal(t, 3, cfg.Popularity.RecordAttempts)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 8, cfg.Search.Parallelism)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9000
  allowed_origins:
    - https://a.example
    - https://b.example
redis:
  disabled: true
popularity:
  record_timeout: 500ms
search:
  parallelism: 4
`), 0o600))

	t.Setenv("SEARCH_PARALLELISM", "16")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Popularity.RecordTimeout)
	assert.Equal(t, 16, cfg.Search.Parallelism)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_DatabaseURLFromParts(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "chabak")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://app:secret@db:5432/chabak?sslmode=disable", cfg.Database.URL)
}

func TestValidate_ProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_DISABLED", "true")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "REDIS_DISABLED")
}

func TestValidate_Ranges(t *testing.T) {
	t.Setenv("SEARCH_PARALLELISM", "0")
	t.Setenv("HTTP_PORT", "70000")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_PARALLELISM")
	assert.Contains(t, err.Error(), "HTTP_PORT")
}
