package service

import (
	"testing"

	"studycollab_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func ids(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestFilterEligible(t *testing.T) {
	cfg := testConfig(10)

	t.Run("Gates", func(t *testing.T) {
		text := gradable("text")
		text.Type = model.ItemText

		kind := gradable("kind")
		kind.Kind = model.KindMultiSelect

		noOptions := gradable("no-options")
		noOptions.Options = nil

		noAnswers := gradable("no-answers")
		noAnswers.CorrectAnswerIDs = nil

		tie := gradable("tie")
		tie.Upvotes, tie.Downvotes = 3, 3

		zero := gradable("zero")
		zero.Upvotes, zero.Downvotes = 0, 0

		negative := gradable("negative")
		negative.Upvotes, negative.Downvotes = 1, 4

		pool := []model.Question{gradable("ok"), text, kind, noOptions, noAnswers, tie, zero, negative}
		assert.Equal(t, []string{"ok"}, ids(FilterEligible(pool, cfg)))
	})

	t.Run("UngradableKindsNeverPass", func(t *testing.T) {
		open := gradable("open")
		open.Kind = model.KindOpenEnded
		open.Options = nil
		open.CorrectAnswerIDs = nil

		allowAll := cfg
		allowAll.AllowedKinds = append(allowAll.AllowedKinds, model.KindOpenEnded)
		assert.Empty(t, FilterEligible([]model.Question{open}, allowAll))
	})

	t.Run("TagsAreOrMatched", func(t *testing.T) {
		pool := []model.Question{
			gradable("go", "go"),
			gradable("sql", "sql"),
			gradable("both", "go", "sql"),
			gradable("none"),
		}
		tagged := cfg
		tagged.SelectedTags = []string{"go", "rust"}
		assert.Equal(t, []string{"go", "both"}, ids(FilterEligible(pool, tagged)))

		assert.Len(t, FilterEligible(pool, cfg), 4)
	})

	t.Run("TagsAreCaseSensitive", func(t *testing.T) {
		tagged := cfg
		tagged.SelectedTags = []string{"Go"}
		assert.Empty(t, FilterEligible([]model.Question{gradable("go", "go")}, tagged))
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		pool := []model.Question{gradable("a"), gradable("b")}
		before := ids(pool)
		FilterEligible(pool, cfg)
		assert.Equal(t, before, ids(pool))
	})
}
