package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"studycollab_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
database:
  driver: memory
storage:
  type: minio
`

func TestWatchConfig_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(baseConfig), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	var forced atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(cfg *config.Config) {
			forced.Store(cfg.Network.ForceOffline)
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(baseConfig+"network:\n  force_offline: true\n"), 0o644))

	assert.Eventually(t, forced.Load, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchConfig_MissingDir(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "nope", "config.yaml"), func(*config.Config) {})
	assert.Error(t, err)
}
