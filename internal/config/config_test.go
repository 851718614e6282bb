package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/projmon/internal/domain/lifecycle"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, lifecycle.DefaultPolicy(), cfg.Policy.LifecyclePolicy())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "projmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
snapshot:
  path: /var/lib/projmon/snap.db
policy:
  inactivity_days: 30
  dense_ids: false
mail:
  host: smtp.example.org
schedule:
  interval: 6h
`), 0o644))

	t.Setenv("PROJMON_CONFIG_PATH", path)
	t.Setenv("PROJMON_SERVER_PORT", "9191")
	t.Setenv("PROJMON_SOURCE_URL", "postgres://localhost/platform")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/var/lib/projmon/snap.db", cfg.Snapshot.Path)
	assert.Equal(t, 30, cfg.Policy.InactivityDays)
	assert.Equal(t, 90, cfg.Policy.CountWindowDays)
	assert.False(t, cfg.Policy.DenseIDs)
	assert.Equal(t, "smtp.example.org", cfg.Mail.Host)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 6*time.Hour, cfg.Schedule.Interval)
	assert.Equal(t, "postgres://localhost/platform", cfg.Source.URL)
	require.NoError(t, cfg.RequireSource())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PROJMON_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PROJMON_LOG_LEVEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("PROJMON_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "PROJMON_SERVER_PORT")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROJMON_CONFIG_PATH", "does-not-exist.yaml")

	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Snapshot.Path = ""
	cfg.Transport.Mode = "grpc"
	cfg.Policy.InactivityDays = 0
	cfg.Mail.Host = "smtp.example.org"
	cfg.Mail.From = ""

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "snapshot.path")
	assert.Contains(t, err.Error(), "transport.mode")
	assert.Contains(t, err.Error(), "inactivity_days")
	assert.Contains(t, err.Error(), "mail.from")
}

func TestRequireSource(t *testing.T) {
	require.ErrorIs(t, Default().RequireSource(), ErrConfiguration)
}

func TestMailSender(t *testing.T) {
	m := Default().Mail
	m.Host = "smtp.example.org"
	s := m.Sender()
	assert.Equal(t, "smtp.example.org", s.Host)
	assert.Equal(t, 587, s.Port)
	assert.Equal(t, 2.0, s.RatePerSecond)
}
