package repository

import (
	"context"
	"testing"
	"time"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Questions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	q, err := s.Upsert(ctx, model.Question{GroupID: "g1", Stem: "first", Tags: []string{"b", "a"}})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, model.ItemQuestion, q.Type)

	q.Stem = "edited"
	_, err = s.Upsert(ctx, q)
	require.NoError(t, err)

	list, err := s.ListQuestions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Stem)

	list[0].Tags[0] = "mutated"
	tags, err := s.ListTags(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestMemoryStore_Reconcile(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendOfflineResult(ctx, "u1", pendingAt("r1", start)))
	loaded, err := s.ListPending(ctx, "u1")
	require.NoError(t, err)

	// queued after the reconcile snapshot was taken
	require.NoError(t, s.AppendOfflineResult(ctx, "u1", pendingAt("r2", start.Add(time.Hour))))

	require.NoError(t, s.CommitReconcile(ctx, "u1", loaded))

	history, err := s.ListResults(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	left, err := s.ListPending(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "r2", left[0].Result.ID)
}

func TestMemoryStore_Bundles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.SaveBundle(ctx, "u1", model.OfflineBundle{ID: "old", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.SaveBundle(ctx, "u1", model.OfflineBundle{ID: "new", CreatedAt: now}))

	list, err := s.ListBundles(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	_, err = s.GetBundle(ctx, "u2", "new")
	assert.ErrorIs(t, err, util.ErrBundleNotFound)

	require.NoError(t, s.DeleteBundle(ctx, "u1", "old"))
	assert.ErrorIs(t, s.DeleteBundle(ctx, "u1", "old"), util.ErrBundleNotFound)
}
