package service

import (
	"math/rand/v2"
	"sync"

	"studycollab_backend/internal/model"
)

// QuestionSelector draws a uniformly random subset of eligible questions.
// A nil source falls back to the global generator.
type QuestionSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuestionSelector(rng *rand.Rand) *QuestionSelector {
	return &QuestionSelector{rng: rng}
}

// Select shuffles the eligible pool with Fisher-Yates, keeps the first
// min(n, len(eligible)) questions, numbers them 1..k and records their ids in
// cfg.QuestionIDs. An empty pool yields an empty selection; rejecting it is
// the caller's job.
func (s *QuestionSelector) Select(eligible []model.Question, cfg *model.SessionConfig) []model.SelectedQuestion {
	pool := make([]model.Question, len(eligible))
	copy(pool, eligible)

	s.mu.Lock()
	for i := len(pool) - 1; i > 0; i-- {
		j := s.intN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	s.mu.Unlock()

	k := cfg.QuestionCount
	if k > len(pool) {
		k = len(pool)
	}
	if k < 0 {
		k = 0
	}

	selected := make([]model.SelectedQuestion, k)
	ids := make([]string, k)
	for i := 0; i < k; i++ {
		selected[i] = model.SelectedQuestion{Question: pool[i].Clone(), Sequence: i + 1}
		ids[i] = pool[i].ID
	}
	cfg.QuestionIDs = ids
	return selected
}

func (s *QuestionSelector) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	return s.rng.IntN(n)
}
