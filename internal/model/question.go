package model

import "sort"

// ItemType distinguishes assessment questions from plain chat messages that
// live in the same group feed.
type ItemType string

const (
	ItemText     ItemType = "TEXT"
	ItemQuestion ItemType = "QUESTION"
)

type QuestionKind string

const (
	KindOpenEnded    QuestionKind = "OPEN_ENDED"
	KindSingleChoice QuestionKind = "MULTIPLE_CHOICE_SINGLE"
	KindTrueFalse    QuestionKind = "TRUE_FALSE"
	KindMultiSelect  QuestionKind = "MULTIPLE_CHOICE_MULTIPLE"
	KindFillIn       QuestionKind = "FILL_IN_THE_BLANK"
	KindMatching     QuestionKind = "MATCHING"
)

func (k QuestionKind) Valid() bool {
	switch k {
	case KindOpenEnded, KindSingleChoice, KindTrueFalse, KindMultiSelect, KindFillIn, KindMatching:
		return true
	}
	return false
}

type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is owned by the group question repository. The engine only reads it.
type Question struct {
	ID               string           `json:"id"`
	GroupID          string           `json:"groupId"`
	Type             ItemType         `json:"type"`
	Stem             string           `json:"questionStem,omitempty"`
	Explanation      string           `json:"explanation,omitempty"`
	Kind             QuestionKind     `json:"questionType,omitempty"`
	Options          []QuestionOption `json:"options,omitempty"`
	CorrectAnswerIDs []string         `json:"correctAnswerIds,omitempty"`
	ImageURL         string           `json:"imageUrl,omitempty"`
	Tags             []string         `json:"tags,omitempty"`
	Upvotes          int              `json:"upvotes"`
	Downvotes        int              `json:"downvotes"`
}

// IsCorrectOption reports whether optionID is one of the correct answers.
func (q Question) IsCorrectOption(optionID string) bool {
	for _, id := range q.CorrectAnswerIDs {
		if id == optionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that sessions and bundles never share slices
// with the repository snapshot.
func (q Question) Clone() Question {
	c := q
	c.Options = append([]QuestionOption(nil), q.Options...)
	c.CorrectAnswerIDs = append([]string(nil), q.CorrectAnswerIDs...)
	c.Tags = append([]string(nil), q.Tags...)
	return c
}

// SelectedQuestion fixes a question's position within one session.
type SelectedQuestion struct {
	Question
	Sequence int `json:"questionNumber"`
}

// DistinctTags returns the sorted set of tags used by question items.
func DistinctTags(questions []Question) []string {
	seen := make(map[string]struct{})
	for _, q := range questions {
		if q.Type != ItemQuestion {
			continue
		}
		for _, t := range q.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
