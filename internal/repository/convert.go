package repository

import (
	"encoding/json"
	"fmt"

	"studycollab_backend/internal/model"
)

func marshalJSON(v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func unmarshalOptional(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func questionFromRecord(rec model.QuestionRecord) (model.Question, error) {
	q := model.Question{
		ID:          rec.ID,
		GroupID:     rec.GroupID,
		Type:        model.ItemType(rec.ItemType),
		Stem:        rec.Stem,
		Explanation: rec.Explanation,
		Kind:        model.QuestionKind(rec.QuestionType),
		ImageURL:    rec.ImageURL,
		Upvotes:     rec.Upvotes,
		Downvotes:   rec.Downvotes,
	}
	if err := unmarshalOptional(rec.Options, &q.Options); err != nil {
		return q, fmt.Errorf("question %s options: %w", rec.ID, err)
	}
	if err := unmarshalOptional(rec.CorrectAnswerIDs, &q.CorrectAnswerIDs); err != nil {
		return q, fmt.Errorf("question %s correct answers: %w", rec.ID, err)
	}
	if err := unmarshalOptional(rec.Tags, &q.Tags); err != nil {
		return q, fmt.Errorf("question %s tags: %w", rec.ID, err)
	}
	return q, nil
}

func questionToRecord(q model.Question) (model.QuestionRecord, error) {
	rec := model.QuestionRecord{
		GroupID:      q.GroupID,
		ItemType:     string(q.Type),
		Stem:         q.Stem,
		Explanation:  q.Explanation,
		QuestionType: string(q.Kind),
		ImageURL:     q.ImageURL,
		Upvotes:      q.Upvotes,
		Downvotes:    q.Downvotes,
	}
	rec.ID = q.ID
	if rec.ItemType == "" {
		rec.ItemType = string(model.ItemQuestion)
	}

	var err error
	if rec.Options, err = marshalJSON(q.Options); err != nil {
		return rec, err
	}
	if rec.CorrectAnswerIDs, err = marshalJSON(q.CorrectAnswerIDs); err != nil {
		return rec, err
	}
	if rec.Tags, err = marshalJSON(q.Tags); err != nil {
		return rec, err
	}
	return rec, nil
}

func resultToRecord(userID string, r model.SessionResult) (model.ResultRecord, error) {
	payload, err := marshalJSON(r)
	if err != nil {
		return model.ResultRecord{}, fmt.Errorf("encode result %s: %w", r.ID, err)
	}
	return model.ResultRecord{
		ID:           r.ID,
		UserID:       userID,
		GroupID:      r.Session.Config.GroupID,
		Offline:      r.Offline(),
		StartedAtMs:  r.Session.StartTime.UnixMilli(),
		EndedAt:      r.Session.EndTime,
		Score:        r.Score,
		CorrectCount: r.CorrectCount,
		TotalCount:   r.TotalCount,
		Payload:      payload,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func resultFromRecord(rec model.ResultRecord) (model.SessionResult, error) {
	var r model.SessionResult
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return r, fmt.Errorf("decode result %s: %w", rec.ID, err)
	}
	return r, nil
}

func pendingToRecord(userID string, p model.PendingSyncResult) (model.PendingSyncRecord, error) {
	payload, err := marshalJSON(p.Result)
	if err != nil {
		return model.PendingSyncRecord{}, fmt.Errorf("encode pending %s: %w", p.Result.ID, err)
	}
	return model.PendingSyncRecord{
		ID:          p.Result.ID,
		UserID:      userID,
		StartedAtMs: p.Result.Session.StartTime.UnixMilli(),
		Payload:     payload,
		QueuedAt:    p.QueuedAt,
	}, nil
}

func pendingFromRecord(rec model.PendingSyncRecord) (model.PendingSyncResult, error) {
	p := model.PendingSyncResult{QueuedAt: rec.QueuedAt}
	if err := json.Unmarshal(rec.Payload, &p.Result); err != nil {
		return p, fmt.Errorf("decode pending %s: %w", rec.ID, err)
	}
	return p, nil
}

func bundleToRecord(userID string, b model.OfflineBundle) (model.BundleRecord, error) {
	cfg, err := marshalJSON(b.Config)
	if err != nil {
		return model.BundleRecord{}, err
	}
	questions, err := json.Marshal(b.Questions)
	if err != nil {
		return model.BundleRecord{}, err
	}
	return model.BundleRecord{
		ID:        b.ID,
		UserID:    userID,
		GroupID:   b.Config.GroupID,
		GroupName: b.GroupName,
		Config:    cfg,
		Questions: questions,
		CreatedAt: b.CreatedAt,
	}, nil
}

func bundleFromRecord(rec model.BundleRecord) (model.OfflineBundle, error) {
	b := model.OfflineBundle{
		ID:        rec.ID,
		GroupName: rec.GroupName,
		CreatedAt: rec.CreatedAt,
	}
	if err := unmarshalOptional(rec.Config, &b.Config); err != nil {
		return b, fmt.Errorf("decode bundle %s config: %w", rec.ID, err)
	}
	if err := json.Unmarshal(rec.Questions, &b.Questions); err != nil {
		return b, fmt.Errorf("decode bundle %s questions: %w", rec.ID, err)
	}
	return b, nil
}
