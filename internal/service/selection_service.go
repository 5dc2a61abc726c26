package service

import (
	"context"
	"fmt"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"
)

// QuestionSource is the read side of the group question repository.
type QuestionSource interface {
	ListQuestions(ctx context.Context, groupID string) ([]model.Question, error)
	// ListTags returns the sorted distinct tags of the group's question items.
	ListTags(ctx context.Context, groupID string) ([]string, error)
}

// SelectionService resolves a session config against a snapshot of the
// group's question pool.
type SelectionService struct {
	questions QuestionSource
	selector  *QuestionSelector
}

func NewSelectionService(questions QuestionSource, selector *QuestionSelector) *SelectionService {
	if selector == nil {
		selector = NewQuestionSelector(nil)
	}
	return &SelectionService{questions: questions, selector: selector}
}

// Resolve filters and samples the pool. The returned config carries the
// chosen question ids; an empty selection is ErrEmptySelection.
func (s *SelectionService) Resolve(ctx context.Context, cfg model.SessionConfig) (model.SessionConfig, []model.SelectedQuestion, error) {
	pool, err := s.questions.ListQuestions(ctx, cfg.GroupID)
	if err != nil {
		return cfg, nil, fmt.Errorf("list questions for group %s: %w", cfg.GroupID, err)
	}

	resolved := cfg.Clone()
	selected := s.selector.Select(FilterEligible(pool, resolved), &resolved)
	if len(selected) == 0 {
		return cfg, nil, util.ErrEmptySelection
	}
	return resolved, selected, nil
}

// ConfigPreview tells a config screen how many questions a config can draw
// and which tags the group offers.
type ConfigPreview struct {
	EligibleCount int      `json:"eligibleCount"`
	AvailableTags []string `json:"availableTags"`
}

func (s *SelectionService) Preview(ctx context.Context, cfg model.SessionConfig) (ConfigPreview, error) {
	pool, err := s.questions.ListQuestions(ctx, cfg.GroupID)
	if err != nil {
		return ConfigPreview{}, fmt.Errorf("list questions for group %s: %w", cfg.GroupID, err)
	}
	tags, err := s.questions.ListTags(ctx, cfg.GroupID)
	if err != nil {
		return ConfigPreview{}, fmt.Errorf("list tags for group %s: %w", cfg.GroupID, err)
	}
	return ConfigPreview{
		EligibleCount: len(FilterEligible(pool, cfg)),
		AvailableTags: tags,
	}, nil
}
