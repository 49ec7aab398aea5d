package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "github.com/axellelanca/pitico/internal/errors"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "pitico.db", cfg.Database.Name)
	assert.Equal(t, "pitico", cfg.Redis.KeyPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Monitor.TimeoutSeconds)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pitico.yaml")
	content := []byte(`
server:
  port: 9000
storage:
  driver: redis
redis:
  addr: cache:6379
log:
  format: json
`)
	require.NoError(t, os.WriteFile(file, content, 0o600))
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.IsType(t, customerrors.ErrConfigLoad{}, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	base, err := LoadConfig("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"sqlite without name", func(c *Config) { c.Database.Name = "" }},
		{"redis without addr", func(c *Config) { c.Storage.Driver = DriverRedis; c.Redis.Addr = "" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero monitor timeout", func(c *Config) { c.Monitor.TimeoutSeconds = 0 }},
		{"negative monitor timeout", func(c *Config) { c.Monitor.TimeoutSeconds = -1 }},
		{"zero monitor concurrency", func(c *Config) { c.Monitor.Concurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_RejectsZeroMonitorTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MONITOR_TIMEOUT_SECONDS", "0")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor.timeout_seconds")
}
