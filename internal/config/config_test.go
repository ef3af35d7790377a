package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
upstream:
  base_url: https://api.example.com
  timeout_seconds: 10
jwt:
  secret: file-secret
reports:
  bucket: console-reports
  access_key: ak
  secret_key: sk
`)
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://api.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout())
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL())
	assert.True(t, cfg.Reports.Enabled())
	assert.Equal(t, "reports/", cfg.Reports.Prefix)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://env.example.com")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_SERVICE_HOST", "redis.internal")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://postgres:@db.internal:6543/access_console?sslmode=disable", cfg.Database.ConnectionString())
	assert.Equal(t, "redis.internal:6379", cfg.RedisAddr())
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, "upstream:\n  base_url: https://api.example.com\n")
	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestValidateReportCredentials(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: https://api.example.com
jwt:
  secret: s
reports:
  bucket: b
  access_key: only-half
`)
	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports credentials")
}
