package service

import (
	"context"
	"fmt"
	"sync"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"
	"studycollab_backend/pkg/logger"
	"studycollab_backend/pkg/monitoring"
	"studycollab_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ResultStore persists the result history and the pending sync queue of
// each user. Every call is all-or-nothing.
type ResultStore interface {
	ListResults(ctx context.Context, userID string) ([]model.SessionResult, error)
	AppendResult(ctx context.Context, userID string, result model.SessionResult) error
	// AppendOfflineResult adds the result to history and queues it for sync.
	AppendOfflineResult(ctx context.Context, userID string, pending model.PendingSyncResult) error
	ListPending(ctx context.Context, userID string) ([]model.PendingSyncResult, error)
	// CommitReconcile merges pending into history (see model.MergePending)
	// and removes exactly those entries from the queue, in one transaction.
	CommitReconcile(ctx context.Context, userID string, pending []model.PendingSyncResult) error
}

// NetworkStatus reports connectivity to the canonical backend.
type NetworkStatus interface {
	IsOnline(ctx context.Context) bool
}

type SyncService struct {
	mu      sync.Mutex
	store   ResultStore
	network NetworkStatus
}

func NewSyncService(store ResultStore, network NetworkStatus) *SyncService {
	return &SyncService{store: store, network: network}
}

// Reconcile moves every pending offline result into the history. Offline it
// fails with ErrOffline and touches nothing. It returns the number of
// results reconciled.
func (s *SyncService) Reconcile(ctx context.Context, userID string) (int, error) {
	ctx, span := tracing.Tracer.Start(ctx, "sync.reconcile")
	defer span.End()

	if !s.network.IsOnline(ctx) {
		monitoring.SyncReconciles.WithLabelValues("offline").Inc()
		return 0, util.ErrOffline
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.store.ListPending(ctx, userID)
	if err != nil {
		monitoring.SyncReconciles.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("load pending results: %w", err)
	}
	if len(pending) == 0 {
		monitoring.SyncReconciles.WithLabelValues("ok").Inc()
		return 0, nil
	}

	if err := s.store.CommitReconcile(ctx, userID, pending); err != nil {
		monitoring.SyncReconciles.WithLabelValues("failed").Inc()
		logger.Log.Error("Reconcile failed", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("commit reconcile: %w", err)
	}

	span.SetAttributes(attribute.Int("sync.reconciled", len(pending)))
	monitoring.SyncReconciles.WithLabelValues("ok").Inc()
	monitoring.ReconciledResults.Add(float64(len(pending)))
	logger.Log.Info("Offline results reconciled", zap.String("user_id", userID), zap.Int("count", len(pending)))
	return len(pending), nil
}
