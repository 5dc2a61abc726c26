package service

import (
	"sync"

	"studycollab_backend/internal/config"
)

// Tunables holds the engine settings that may be swapped while the server
// runs. Readers take a copy per operation.
type Tunables struct {
	mu  sync.RWMutex
	cfg config.EngineConfig
}

func NewTunables(cfg config.EngineConfig) *Tunables {
	return &Tunables{cfg: cfg}
}

func (t *Tunables) Get() config.EngineConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// Update ignores non-positive values so a partial reload cannot stall the
// timer or the image workers.
func (t *Tunables) Update(cfg config.EngineConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cfg.TickInterval > 0 {
		t.cfg.TickInterval = cfg.TickInterval
	}
	if cfg.ImageFetchTimeout > 0 {
		t.cfg.ImageFetchTimeout = cfg.ImageFetchTimeout
	}
	if cfg.ImageFetchParallel > 0 {
		t.cfg.ImageFetchParallel = cfg.ImageFetchParallel
	}
	if cfg.MaxImageBytes > 0 {
		t.cfg.MaxImageBytes = cfg.MaxImageBytes
	}
	if cfg.BuildLeaseTTL > 0 {
		t.cfg.BuildLeaseTTL = cfg.BuildLeaseTTL
	}
}
