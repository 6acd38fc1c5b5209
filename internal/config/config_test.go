package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://localhost/zanon\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "JP", cfg.Spotify.Market)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  timezone: Asia/Tokyo
  log_level: debug
server:
  addr: ":9000"
database:
  url: postgres://localhost/zanon
gemini:
  api_key: key123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Asia/Tokyo", cfg.App.Timezone)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "key123", cfg.Gemini.APIKey)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ZANON_DATABASE_URL", "postgres://env-host/zanon")
	t.Setenv("ZANON_APP_TIMEZONE", "Asia/Tokyo")

	path := writeConfig(t, "database:\n  url: postgres://file-host/zanon\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/zanon", cfg.Database.URL)
	assert.Equal(t, "Asia/Tokyo", cfg.App.Timezone)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	path := writeConfig(t, "app:\n  log_level: debug\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "database.url")
}

func TestLoadInvalidTimezone(t *testing.T) {
	path := writeConfig(t, `
app:
  timezone: Mars/Olympus
database:
  url: postgres://localhost/zanon
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "app.timezone")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
