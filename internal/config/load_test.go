package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults verifies the defaults when neither a file nor environment
// overrides are present.
func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "errbook.db", cfg.Storage.Path)
	assert.Equal(t, []int{1, 3, 7, 14, 30, 60}, cfg.Scheduler.IntervalsDays)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Empty(t, cfg.Sync.Endpoint)
	assert.True(t, cfg.Sync.Tracks("wrong_question"))
	assert.True(t, cfg.Sync.Tracks("note"))
	assert.False(t, cfg.Sync.Tracks("card"))
}

// TestLoadFromEnv verifies that environment variables override defaults.
func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ERRBOOK_SERVER_PORT", "9090")
	t.Setenv("ERRBOOK_LOG_LEVEL", "debug")
	t.Setenv("ERRBOOK_SYNC_ENDPOINT", "https://sync.example.com/push")
	t.Setenv("ERRBOOK_SYNC_INTERVAL", "45s")
	t.Setenv("ERRBOOK_SCHEDULER_INTERVALS_DAYS", "2,4,8")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://sync.example.com/push", cfg.Sync.Endpoint)
	assert.Equal(t, 45*time.Second, cfg.Sync.Interval)
	assert.Equal(t, []int{2, 4, 8}, cfg.Scheduler.IntervalsDays)
}

// TestLoadFromFile verifies that a YAML file is read and that the
// environment still wins over it.
func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "errbook.yaml")
	content := []byte(`
storage:
  path: /tmp/notebook.db
  timezone: Asia/Shanghai
sync:
  tracked_entities: [wrong_question]
  interval: 1m
log:
  level: warn
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("ERRBOOK_LOG_LEVEL", "error")

	loader := NewLoader(path)
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, path, loader.File())
	assert.Equal(t, "/tmp/notebook.db", cfg.Storage.Path)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.False(t, cfg.Sync.Tracks("note"))

	loc, err := cfg.Storage.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

// TestLoadValidation verifies that invalid values are rejected.
func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid port", map[string]string{"ERRBOOK_SERVER_PORT": "70000"}},
		{"invalid log level", map[string]string{"ERRBOOK_LOG_LEVEL": "verbose"}},
		{"invalid endpoint", map[string]string{"ERRBOOK_SYNC_ENDPOINT": "not a url"}},
		{"unknown entity", map[string]string{"ERRBOOK_SYNC_TRACKED_ENTITIES": "card"}},
		{"non-positive interval", map[string]string{"ERRBOOK_SCHEDULER_INTERVALS_DAYS": "1,0"}},
		{"unknown timezone", map[string]string{"ERRBOOK_STORAGE_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")

			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, "validation failed")
		})
	}
}
