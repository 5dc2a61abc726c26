package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"
	"studycollab_backend/pkg/logger"
	"studycollab_backend/pkg/monitoring"
	"studycollab_backend/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BundleStore persists offline bundles per user.
type BundleStore interface {
	SaveBundle(ctx context.Context, userID string, bundle model.OfflineBundle) error
	ListBundles(ctx context.Context, userID string) ([]model.OfflineBundle, error)
	// GetBundle returns util.ErrBundleNotFound for unknown ids.
	GetBundle(ctx context.Context, userID, bundleID string) (model.OfflineBundle, error)
	DeleteBundle(ctx context.Context, userID, bundleID string) error
}

type ImageEmbedder interface {
	Embed(ctx context.Context, rawURL string) (string, error)
}

type BundleService struct {
	selection *SelectionService
	embedder  ImageEmbedder
	gate      BuildGate
	store     BundleStore
	tunables  *Tunables
	now       func() time.Time
}

func NewBundleService(selection *SelectionService, embedder ImageEmbedder, gate BuildGate, store BundleStore, tunables *Tunables) *BundleService {
	return &BundleService{
		selection: selection,
		embedder:  embedder,
		gate:      gate,
		store:     store,
		tunables:  tunables,
		now:       time.Now,
	}
}

// Build resolves cfg against the live pool, inlines every remote image and
// stores the result as a new bundle. The caller holds the build lease for
// the whole call; a concurrent build for the same user gets
// ErrBuildInProgress. Image failures only drop the affected image.
func (s *BundleService) Build(ctx context.Context, userID string, cfg model.SessionConfig, groupName string) (model.OfflineBundle, error) {
	ctx, span := tracing.Tracer.Start(ctx, "bundle.build", trace.WithAttributes(attribute.String("group.id", cfg.GroupID)))
	defer span.End()

	tun := s.tunables.Get()
	// one build at a time per device; the lease key is the owning user
	lease, err := s.gate.Acquire(ctx, userID, tun.BuildLeaseTTL)
	if err != nil {
		if errors.Is(err, util.ErrBuildInProgress) {
			monitoring.BundleBuilds.WithLabelValues("busy").Inc()
		}
		return model.OfflineBundle{}, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Log.Error("Failed to release bundle build lease", zap.String("user_id", userID), zap.Error(err))
		}
	}()

	logger.Log.Info("Building offline bundle",
		zap.String("user_id", userID),
		zap.String("group_id", cfg.GroupID),
		zap.Int("requested", cfg.QuestionCount))

	resolved, selected, err := s.selection.Resolve(ctx, cfg)
	if err != nil {
		monitoring.BundleBuilds.WithLabelValues("failed").Inc()
		return model.OfflineBundle{}, err
	}

	failed := s.embedImages(ctx, selected, tun.ImageFetchParallel)
	span.SetAttributes(attribute.Int("bundle.questions", len(selected)), attribute.Int("bundle.image_failures", failed))

	bundle := model.OfflineBundle{
		ID:        "offline-" + uuid.NewString(),
		Config:    resolved,
		Questions: selected,
		CreatedAt: s.now(),
		GroupName: groupName,
	}
	if err := s.store.SaveBundle(ctx, userID, bundle); err != nil {
		monitoring.BundleBuilds.WithLabelValues("failed").Inc()
		return model.OfflineBundle{}, fmt.Errorf("save bundle: %w", err)
	}

	monitoring.BundleBuilds.WithLabelValues("ok").Inc()
	logger.Log.Info("Offline bundle built",
		zap.String("user_id", userID),
		zap.String("bundle_id", bundle.ID),
		zap.Int("questions", len(selected)),
		zap.Int("image_failures", failed))
	return bundle, nil
}

// embedImages rewrites image references in place and returns how many
// embeds failed. It returns only after every attempt has settled.
func (s *BundleService) embedImages(ctx context.Context, questions []model.SelectedQuestion, parallel int) int {
	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i := range questions {
		ref := questions[i].ImageURL
		if ref == "" || strings.HasPrefix(ref, "data:") {
			continue
		}
		q := &questions[i]
		g.Go(func() error {
			uri, err := s.embedder.Embed(ctx, ref)
			if err != nil {
				failed.Add(1)
				monitoring.ImageEmbedFailures.Inc()
				logger.Log.Warn("Image embed failed, dropping image",
					zap.String("question_id", q.ID),
					zap.String("image_url", ref),
					zap.Error(err))
				q.ImageURL = ""
				return nil
			}
			q.ImageURL = uri
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

func (s *BundleService) List(ctx context.Context, userID string) ([]model.OfflineBundle, error) {
	return s.store.ListBundles(ctx, userID)
}

func (s *BundleService) Get(ctx context.Context, userID, bundleID string) (model.OfflineBundle, error) {
	return s.store.GetBundle(ctx, userID, bundleID)
}

func (s *BundleService) Delete(ctx context.Context, userID, bundleID string) error {
	return s.store.DeleteBundle(ctx, userID, bundleID)
}
