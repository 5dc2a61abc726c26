package service

import (
	"context"
	"sort"
	"time"

	"studycollab_backend/internal/model"
)

type ResultService struct {
	store ResultStore
}

func NewResultService(store ResultStore) *ResultService {
	return &ResultService{store: store}
}

func (s *ResultService) History(ctx context.Context, userID string) ([]model.SessionResult, error) {
	return s.store.ListResults(ctx, userID)
}

func (s *ResultService) Pending(ctx context.Context, userID string) ([]model.PendingSyncResult, error) {
	return s.store.ListPending(ctx, userID)
}

type ScorePoint struct {
	At    time.Time `json:"at"`
	Score float64   `json:"score"`
}

// GroupPerformance summarises a user's test history in one group.
type GroupPerformance struct {
	GroupID               string       `json:"groupId"`
	TestCount             int          `json:"testCount"`
	AverageScore          float64      `json:"averageScore"`
	Accuracy              float64      `json:"accuracy"`
	AverageSecondsPerItem float64      `json:"averageTimePerQuestion"`
	Scores                []ScorePoint `json:"scores"`
}

// GroupPerformance aggregates the history per group, sorted by group id.
// Average time only counts answers that carry an elapsed time.
func (s *ResultService) GroupPerformance(ctx context.Context, userID string) ([]GroupPerformance, error) {
	results, err := s.store.ListResults(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(results), nil
}

func summarize(results []model.SessionResult) []GroupPerformance {
	type acc struct {
		perf          GroupPerformance
		totalScore    float64
		correct       int
		total         int
		timeSpent     int
		timedAnswered int
	}

	ordered := make([]model.SessionResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Session.StartTime.Before(ordered[j].Session.StartTime)
	})

	groups := make(map[string]*acc)
	for _, r := range ordered {
		gid := r.Session.Config.GroupID
		a, ok := groups[gid]
		if !ok {
			a = &acc{perf: GroupPerformance{GroupID: gid}}
			groups[gid] = a
		}
		a.perf.TestCount++
		a.totalScore += r.Score
		a.correct += r.CorrectCount
		a.total += r.TotalCount
		for _, ans := range r.Session.Answers {
			if ans.ElapsedSeconds != nil {
				a.timeSpent += *ans.ElapsedSeconds
				a.timedAnswered++
			}
		}
		a.perf.Scores = append(a.perf.Scores, ScorePoint{At: r.Session.StartTime, Score: r.Score})
	}

	out := make([]GroupPerformance, 0, len(groups))
	for _, a := range groups {
		p := a.perf
		p.AverageScore = a.totalScore / float64(p.TestCount)
		if a.total > 0 {
			p.Accuracy = float64(a.correct) / float64(a.total) * 100
		}
		if a.timedAnswered > 0 {
			p.AverageSecondsPerItem = float64(a.timeSpent) / float64(a.timedAnswered)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}
