package service

import (
	"context"
	"time"

	"studycollab_backend/internal/config"
	"studycollab_backend/internal/model"
)

type fakeQuestions struct {
	qs  []model.Question
	err error
}

func (f *fakeQuestions) ListQuestions(ctx context.Context, groupID string) ([]model.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Question
	for _, q := range f.qs {
		if q.GroupID == groupID {
			out = append(out, q.Clone())
		}
	}
	return out, nil
}

func (f *fakeQuestions) ListTags(ctx context.Context, groupID string) ([]string, error) {
	qs, err := f.ListQuestions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return model.DistinctTags(qs), nil
}

// gradable returns a single-choice question that passes every gate.
func gradable(id string, tags ...string) model.Question {
	return model.Question{
		ID:               id,
		GroupID:          "g1",
		Type:             model.ItemQuestion,
		Stem:             "stem " + id,
		Kind:             model.KindSingleChoice,
		Options:          []model.QuestionOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
		CorrectAnswerIDs: []string{"a"},
		Tags:             tags,
		Upvotes:          2,
		Downvotes:        1,
	}
}

func testConfig(n int) model.SessionConfig {
	return model.SessionConfig{
		GroupID:       "g1",
		QuestionCount: n,
		AllowedKinds:  []model.QuestionKind{model.KindSingleChoice, model.KindTrueFalse},
	}
}

func testTunables() *Tunables {
	return NewTunables(config.EngineConfig{
		TickInterval:       10 * time.Millisecond,
		ImageFetchTimeout:  time.Second,
		ImageFetchParallel: 4,
		MaxImageBytes:      1 << 20,
		BuildLeaseBackend:  "local",
		BuildLeaseTTL:      time.Minute,
	})
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func intPtr(v int) *int { return &v }
