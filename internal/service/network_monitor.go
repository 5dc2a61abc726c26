package service

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"studycollab_backend/internal/config"
	"studycollab_backend/pkg/logger"

	"go.uber.org/zap"
)

// NetworkMonitor caches the outcome of a periodic HTTP probe. Without a
// probe URL it reports online unless forced offline.
type NetworkMonitor struct {
	client       *http.Client
	probeURL     string
	interval     time.Duration
	online       atomic.Bool
	forceOffline atomic.Bool
}

func NewNetworkMonitor(cfg config.NetworkConfig) *NetworkMonitor {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	interval := cfg.ProbeInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	m := &NetworkMonitor{
		client:   &http.Client{Timeout: timeout},
		probeURL: cfg.ProbeURL,
		interval: interval,
	}
	m.online.Store(true)
	m.forceOffline.Store(cfg.ForceOffline)
	return m
}

func (m *NetworkMonitor) IsOnline(ctx context.Context) bool {
	if m.forceOffline.Load() {
		return false
	}
	return m.online.Load()
}

func (m *NetworkMonitor) SetForceOffline(v bool) {
	m.forceOffline.Store(v)
}

// Probe checks the probe URL once and records the outcome.
func (m *NetworkMonitor) Probe(ctx context.Context) bool {
	if m.probeURL == "" {
		m.online.Store(true)
		return true
	}
	ok := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err == nil {
		resp, err := m.client.Do(req)
		if err == nil {
			resp.Body.Close()
			ok = resp.StatusCode < http.StatusInternalServerError
		}
	}
	if prev := m.online.Swap(ok); prev != ok {
		logger.Log.Info("Network status changed", zap.Bool("online", ok), zap.String("probe_url", m.probeURL))
	}
	return ok
}

// Run probes on every interval until ctx is done.
func (m *NetworkMonitor) Run(ctx context.Context) {
	m.Probe(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// StaticNetwork is a settable status used in memory mode and tests.
type StaticNetwork struct {
	online atomic.Bool
}

func NewStaticNetwork(online bool) *StaticNetwork {
	n := &StaticNetwork{}
	n.online.Store(online)
	return n
}

func (n *StaticNetwork) IsOnline(ctx context.Context) bool { return n.online.Load() }

func (n *StaticNetwork) Set(online bool) { n.online.Store(online) }
