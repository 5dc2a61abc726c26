package service

import "studycollab_backend/internal/model"

// FilterEligible returns the questions of a group that may appear in an
// assessment built from cfg. A question qualifies when it is a question item,
// its kind is allowed, it has options and correct answer ids, it has strictly
// more upvotes than downvotes, and (when tags are selected) it shares at
// least one tag with the selection. Tag comparison is exact and case-sensitive.
func FilterEligible(questions []model.Question, cfg model.SessionConfig) []model.Question {
	allowed := make(map[model.QuestionKind]struct{}, len(cfg.AllowedKinds))
	for _, k := range cfg.AllowedKinds {
		allowed[k] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(cfg.SelectedTags))
	for _, t := range cfg.SelectedTags {
		wanted[t] = struct{}{}
	}

	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if q.Type != model.ItemQuestion {
			continue
		}
		if _, ok := allowed[q.Kind]; !ok {
			continue
		}
		if len(q.Options) == 0 || len(q.CorrectAnswerIDs) == 0 {
			continue
		}
		if q.Upvotes <= q.Downvotes {
			continue
		}
		if len(wanted) > 0 && !sharesTag(q.Tags, wanted) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func sharesTag(tags []string, wanted map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := wanted[t]; ok {
			return true
		}
	}
	return false
}
