package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: memory
storage:
  type: minio
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.Engine.TickInterval)
	assert.Equal(t, 8, cfg.Engine.ImageFetchParallel)
	assert.Equal(t, "local", cfg.Engine.BuildLeaseBackend)
	assert.Equal(t, 15*time.Second, cfg.Network.ProbeInterval)
	assert.Equal(t, "logs/studycollab-assessment.log", cfg.Log.File)
	assert.Equal(t, "studycollab-assessment", cfg.Log.Service)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoadConfig_EngineOverrides(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: memory
storage:
  type: minio
engine:
  tick_interval: 250ms
  image_fetch_parallel: 2
  build_lease_backend: redis
  build_lease_ttl: 30s
network:
  force_offline: true
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, 2, cfg.Engine.ImageFetchParallel)
	assert.Equal(t, "redis", cfg.Engine.BuildLeaseBackend)
	assert.Equal(t, 30*time.Second, cfg.Engine.BuildLeaseTTL)
	assert.True(t, cfg.Network.ForceOffline)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Mode: "debug"},
			Database: DatabaseConfig{Driver: "memory"},
			Engine: EngineConfig{
				TickInterval:       time.Second,
				ImageFetchParallel: 1,
				BuildLeaseBackend:  "local",
			},
		}
	}

	t.Run("ok", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("short secret in release", func(t *testing.T) {
		cfg := base()
		cfg.Server.Mode = "release"
		cfg.JWT.Secret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown lease backend", func(t *testing.T) {
		cfg := base()
		cfg.Engine.BuildLeaseBackend = "etcd"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero tick", func(t *testing.T) {
		cfg := base()
		cfg.Engine.TickInterval = 0
		assert.Error(t, cfg.Validate())
	})
}
