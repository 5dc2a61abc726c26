package repository

import (
	"context"
	"sort"
	"sync"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"

	"github.com/google/uuid"
)

// MemoryStore keeps questions, results, pending syncs and bundles in
// process. It backs the "memory" database driver and the engine tests.
// Everything handed in or out is copied.
type MemoryStore struct {
	mu        sync.RWMutex
	questions map[string][]model.Question
	results   map[string][]model.SessionResult
	pending   map[string][]model.PendingSyncResult
	bundles   map[string][]model.OfflineBundle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: make(map[string][]model.Question),
		results:   make(map[string][]model.SessionResult),
		pending:   make(map[string][]model.PendingSyncResult),
		bundles:   make(map[string][]model.OfflineBundle),
	}
}

func cloneResult(r model.SessionResult) model.SessionResult {
	r.Session = r.Session.Clone()
	return r
}

func cloneBundle(b model.OfflineBundle) model.OfflineBundle {
	c := b
	c.Config = b.Config.Clone()
	c.Questions = make([]model.SelectedQuestion, len(b.Questions))
	for i, q := range b.Questions {
		c.Questions[i] = model.SelectedQuestion{Question: q.Question.Clone(), Sequence: q.Sequence}
	}
	return c
}

func (s *MemoryStore) ListQuestions(ctx context.Context, groupID string) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.questions[groupID]
	out := make([]model.Question, len(src))
	for i, q := range src {
		out[i] = q.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, q model.Question) (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Type == "" {
		q.Type = model.ItemQuestion
	}
	group := s.questions[q.GroupID]
	for i := range group {
		if group[i].ID == q.ID {
			group[i] = q.Clone()
			return q, nil
		}
	}
	s.questions[q.GroupID] = append(group, q.Clone())
	return q, nil
}

func (s *MemoryStore) ListTags(ctx context.Context, groupID string) ([]string, error) {
	qs, err := s.ListQuestions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return model.DistinctTags(qs), nil
}

func (s *MemoryStore) ListResults(ctx context.Context, userID string) ([]model.SessionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.results[userID]
	out := make([]model.SessionResult, len(src))
	for i, r := range src {
		out[i] = cloneResult(r)
	}
	return out, nil
}

func (s *MemoryStore) AppendResult(ctx context.Context, userID string, result model.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[userID] = append(s.results[userID], cloneResult(result))
	return nil
}

func (s *MemoryStore) AppendOfflineResult(ctx context.Context, userID string, pending model.PendingSyncResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[userID] = append(s.results[userID], cloneResult(pending.Result))
	pending.Result = cloneResult(pending.Result)
	s.pending[userID] = append(s.pending[userID], pending)
	return nil
}

func (s *MemoryStore) ListPending(ctx context.Context, userID string) ([]model.PendingSyncResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.pending[userID]
	out := make([]model.PendingSyncResult, len(src))
	for i, p := range src {
		p.Result = cloneResult(p.Result)
		out[i] = p
	}
	return out, nil
}

func (s *MemoryStore) CommitReconcile(ctx context.Context, userID string, pending []model.PendingSyncResult) error {
	if len(pending) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copies := make([]model.PendingSyncResult, len(pending))
	done := make(map[string]bool, len(pending))
	for i, p := range pending {
		p.Result = cloneResult(p.Result)
		copies[i] = p
		done[p.Result.ID] = true
	}
	s.results[userID] = model.MergePending(s.results[userID], copies)

	remaining := s.pending[userID][:0:0]
	for _, p := range s.pending[userID] {
		if !done[p.Result.ID] {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == 0 {
		delete(s.pending, userID)
	} else {
		s.pending[userID] = remaining
	}
	return nil
}

func (s *MemoryStore) SaveBundle(ctx context.Context, userID string, bundle model.OfflineBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[userID] = append(s.bundles[userID], cloneBundle(bundle))
	return nil
}

// ListBundles returns the user's bundles, newest first.
func (s *MemoryStore) ListBundles(ctx context.Context, userID string) ([]model.OfflineBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.bundles[userID]
	out := make([]model.OfflineBundle, len(src))
	for i, b := range src {
		out[i] = cloneBundle(b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetBundle(ctx context.Context, userID, bundleID string) (model.OfflineBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bundles[userID] {
		if b.ID == bundleID {
			return cloneBundle(b), nil
		}
	}
	return model.OfflineBundle{}, util.ErrBundleNotFound
}

func (s *MemoryStore) DeleteBundle(ctx context.Context, userID, bundleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.bundles[userID]
	for i, b := range list {
		if b.ID == bundleID {
			s.bundles[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return util.ErrBundleNotFound
}
