package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"studycollab_backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNetworkMonitor_Probe(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNoContent)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	m := NewNetworkMonitor(config.NetworkConfig{ProbeURL: srv.URL, ProbeTimeout: time.Second})
	ctx := context.Background()

	assert.True(t, m.Probe(ctx))
	assert.True(t, m.IsOnline(ctx))

	status.Store(http.StatusServiceUnavailable)
	assert.False(t, m.Probe(ctx))
	assert.False(t, m.IsOnline(ctx))

	status.Store(http.StatusNotFound)
	assert.True(t, m.Probe(ctx))

	m.SetForceOffline(true)
	assert.False(t, m.IsOnline(ctx))
	m.SetForceOffline(false)
	assert.True(t, m.IsOnline(ctx))
}

func TestNetworkMonitor_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := NewNetworkMonitor(config.NetworkConfig{ProbeURL: url, ProbeTimeout: 200 * time.Millisecond})
	assert.False(t, m.Probe(context.Background()))
}

func TestNetworkMonitor_NoProbeURL(t *testing.T) {
	m := NewNetworkMonitor(config.NetworkConfig{ForceOffline: true})
	ctx := context.Background()
	assert.False(t, m.IsOnline(ctx))
	assert.True(t, m.Probe(ctx))
	m.SetForceOffline(false)
	assert.True(t, m.IsOnline(ctx))
}
