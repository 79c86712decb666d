package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Alerts.RefreshEvery)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: med-reminder
  timezone: America/Sao_Paulo
server:
  port: "9000"
alerts:
  refresh_every: 30s
redis:
  addr: localhost:6379
  ttl: 1m
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "s3cr3t")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "s3cr3t", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Second, cfg.Alerts.RefreshEvery)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())
	// no pisado por el yaml
	assert.Equal(t, 10*time.Second, cfg.Alerts.RequestTimeout)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_BrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=7000\nJWT_SECRET=from-dotenv\n"), 0o600))

	t.Setenv("PORT", "9000")
	// registra la restauración y deja JWT_SECRET sin definir
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "from-dotenv", cfg.JWT.Secret)
}
