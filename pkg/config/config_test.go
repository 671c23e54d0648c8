package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configFileEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(32<<20), cfg.Ingest.MaxUploadBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"9000\"\n  request_timeout: 5s\nlogging:\n  level: debug\ntimezone: Europe/London\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv(configFileEnv, path)
	t.Setenv("CAMPAIGNDASH_SERVER_PORT", "9100")
	t.Setenv("CAMPAIGNDASH_INGEST_MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(1024), cfg.Ingest.MaxUploadBytes)
	assert.Equal(t, "Europe/London", cfg.Timezone)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv(configFileEnv, "")
	t.Setenv("CAMPAIGNDASH_TIMEZONE", "Nowhere/Atlantis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}
