package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ":8099", cfg.Addr)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 720*time.Hour, cfg.JournalRetention)
	assert.Equal(t, "@every 1h", cfg.PruneSchedule)
	assert.Equal(t, filepath.Join("/data", "locker-pass-manager.db"), cfg.DatabasePath())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("LOCKER_ADDR", ":9000")
	t.Setenv("LOCKER_JOURNAL_RETENTION", "24h")
	t.Setenv("LOCKER_LOG_DEV", "true")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.JournalRetention)
	assert.True(t, cfg.LogDev)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("LOCKER_ADDR", ":9000")

	cfg, err := Load(newFlags(t, "--addr", ":7000", "--data", "/tmp/lockers"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "/tmp/lockers", cfg.DataDir)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log-level: debug\nprune-schedule: \"@every 5m\"\n"), 0o600))

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "@every 5m", cfg.PruneSchedule)

	_, err = Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, err := Load(newFlags(t, "--admin-address", "root@example.com"))
	assert.Error(t, err)

	_, err = Load(newFlags(t, "--journal-retention", "-1h"))
	assert.Error(t, err)

	_, err = Load(newFlags(t, "--addr", ""))
	assert.Error(t, err)

	cfg, err := Load(newFlags(t, "--admin-address", "root@example.com", "--admin-password", "pw"))
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", cfg.AdminAddress)
}
