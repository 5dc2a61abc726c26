package repository

import (
	"context"
	"fmt"
	"os"

	"studycollab_backend/internal/model"

	"gopkg.in/yaml.v3"
)

type seedOption struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type seedQuestion struct {
	ID          string       `yaml:"id"`
	GroupID     string       `yaml:"group_id"`
	Type        string       `yaml:"type"`
	Stem        string       `yaml:"stem"`
	Explanation string       `yaml:"explanation"`
	Kind        string       `yaml:"kind"`
	Options     []seedOption `yaml:"options"`
	Correct     []string     `yaml:"correct"`
	ImageURL    string       `yaml:"image_url"`
	Tags        []string     `yaml:"tags"`
	Upvotes     int          `yaml:"upvotes"`
	Downvotes   int          `yaml:"downvotes"`
}

// QuestionUpserter is implemented by QuestionRepository and MemoryStore.
type QuestionUpserter interface {
	Upsert(ctx context.Context, q model.Question) (model.Question, error)
}

// ParseSeed decodes a YAML list of questions.
func ParseSeed(data []byte) ([]model.Question, error) {
	var raw []seedQuestion
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	out := make([]model.Question, 0, len(raw))
	for i, r := range raw {
		if r.GroupID == "" {
			return nil, fmt.Errorf("seed question %d: group_id is required", i)
		}
		q := model.Question{
			ID:               r.ID,
			GroupID:          r.GroupID,
			Type:             model.ItemType(r.Type),
			Stem:             r.Stem,
			Explanation:      r.Explanation,
			Kind:             model.QuestionKind(r.Kind),
			CorrectAnswerIDs: r.Correct,
			ImageURL:         r.ImageURL,
			Tags:             r.Tags,
			Upvotes:          r.Upvotes,
			Downvotes:        r.Downvotes,
		}
		if q.Type == "" {
			q.Type = model.ItemQuestion
		}
		if q.Kind != "" && !q.Kind.Valid() {
			return nil, fmt.Errorf("seed question %d: unknown kind %q", i, r.Kind)
		}
		for _, o := range r.Options {
			q.Options = append(q.Options, model.QuestionOption{ID: o.ID, Text: o.Text})
		}
		out = append(out, q)
	}
	return out, nil
}

// LoadSeedFile reads and parses a YAML seed file.
func LoadSeedFile(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

// SeedQuestions upserts qs in order and returns how many were written.
func SeedQuestions(ctx context.Context, dst QuestionUpserter, qs []model.Question) (int, error) {
	for i, q := range qs {
		if _, err := dst.Upsert(ctx, q); err != nil {
			return i, fmt.Errorf("upsert seed question %d: %w", i, err)
		}
	}
	return len(qs), nil
}
