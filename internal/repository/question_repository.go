package repository

import (
	"context"
	"fmt"
	"sort"

	"studycollab_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionRepository reads the group question pool. The engine only reads;
// Upsert exists for seeding and administration.
type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// ListQuestions returns a snapshot of the group's items, oldest first.
func (r *QuestionRepository) ListQuestions(ctx context.Context, groupID string) ([]model.Question, error) {
	var recs []model.QuestionRecord
	if err := r.DB.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at asc").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]model.Question, 0, len(recs))
	for _, rec := range recs {
		q, err := questionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *QuestionRepository) Upsert(ctx context.Context, q model.Question) (model.Question, error) {
	rec, err := questionToRecord(q)
	if err != nil {
		return q, err
	}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error; err != nil {
		return q, err
	}
	q.ID = rec.ID
	if q.Type == "" {
		q.Type = model.ItemQuestion
	}
	return q, nil
}

// ListTags reads only the tags column of the group's question items.
func (r *QuestionRepository) ListTags(ctx context.Context, groupID string) ([]string, error) {
	var raws [][]byte
	if err := r.DB.WithContext(ctx).
		Model(&model.QuestionRecord{}).
		Where("group_id = ? AND item_type = ?", groupID, string(model.ItemQuestion)).
		Pluck("tags", &raws).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, raw := range raws {
		var tags []string
		if err := unmarshalOptional(raw, &tags); err != nil {
			return nil, fmt.Errorf("group %s tags: %w", groupID, err)
		}
		for _, t := range tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}
