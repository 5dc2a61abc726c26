package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistinctTags(t *testing.T) {
	qs := []Question{
		{Type: ItemQuestion, Tags: []string{"sql", "go"}},
		{Type: ItemQuestion, Tags: []string{"go", "Go"}},
		{Type: ItemText, Tags: []string{"chat"}},
	}
	assert.Equal(t, []string{"Go", "go", "sql"}, DistinctTags(qs))
	assert.Empty(t, DistinctTags(nil))
}

func TestQuestionClone(t *testing.T) {
	q := Question{
		ID:               "q1",
		Options:          []QuestionOption{{ID: "a", Text: "A"}},
		CorrectAnswerIDs: []string{"a"},
		Tags:             []string{"go"},
	}
	c := q.Clone()
	c.Options[0].Text = "changed"
	c.Tags[0] = "changed"

	assert.Equal(t, "A", q.Options[0].Text)
	assert.Equal(t, "go", q.Tags[0])
	assert.True(t, c.IsCorrectOption("a"))
	assert.False(t, c.IsCorrectOption("b"))
}
