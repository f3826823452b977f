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
	path := filepath.Join(t.TempDir(), "hslindex.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
listen = "0.0.0.0:9000"
log_level = "debug"

[tasks]
workers = 2
shutdown_timeout = "5s"

[scan]
exclude = ["**/node_modules", "*.tmp"]
gitignore = true

[sync]
interval = "0s"

[volumes]
poll_interval = "1m"
auto_index = "/var/lib/hslindex/media"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 5*time.Second, cfg.Tasks.ShutdownTimeout.Std())
	assert.Equal(t, Default().Tasks.QueueSize, cfg.Tasks.QueueSize, "unset keys keep their default")
	assert.Equal(t, []string{"**/node_modules", "*.tmp"}, cfg.Scan.Exclude)
	assert.True(t, cfg.Scan.GitIgnore)
	assert.Zero(t, cfg.Sync.Interval)
	assert.Equal(t, time.Minute, cfg.Volumes.PollInterval.Std())
	assert.Equal(t, "/var/lib/hslindex/media", cfg.Volumes.AutoIndex)

	opts := cfg.TaskOptions()
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 5*time.Second, opts.ShutdownTimeout)
	assert.Equal(t, cfg.Scan.Exclude, cfg.ServiceOptions().Exclude)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "listne = \"x\"\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "[sync]\ninterval = \"often\"\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "chatty"
	cfg.Search.DefaultMax = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "default_max")

	cfg = Default()
	cfg.Listen = ""
	assert.Error(t, cfg.Validate())
	cfg.MCP = true
	assert.NoError(t, cfg.Validate())
}
