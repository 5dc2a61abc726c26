package model

import "time"

type SessionMode string

const (
	ModeTest  SessionMode = "test"
	ModeStudy SessionMode = "study"
)

func (m SessionMode) Valid() bool {
	return m == ModeTest || m == ModeStudy
}

type SessionConfig struct {
	GroupID          string         `json:"groupId" binding:"required"`
	QuestionCount    int            `json:"numberOfQuestions" binding:"min=1"`
	TimerDurationSec int            `json:"timerDuration,omitempty" binding:"min=0"`
	AllowedKinds     []QuestionKind `json:"allowedQuestionTypes"`
	SelectedTags     []string       `json:"selectedTags,omitempty"`
	QuestionIDs      []string       `json:"questionIds"`
}

func (c SessionConfig) Clone() SessionConfig {
	out := c
	out.AllowedKinds = append([]QuestionKind(nil), c.AllowedKinds...)
	out.SelectedTags = append([]string(nil), c.SelectedTags...)
	out.QuestionIDs = append([]string(nil), c.QuestionIDs...)
	return out
}

// AnswerRecord is pre-created for every selected question. An empty
// SelectedOptionID means unanswered; IsCorrect is set together with it.
type AnswerRecord struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
	IsCorrect        *bool  `json:"isCorrect,omitempty"`
	ElapsedSeconds   *int   `json:"timeSpentSeconds,omitempty"`
	Bookmarked       bool   `json:"isBookmarked"`
}

func (a AnswerRecord) Answered() bool {
	return a.SelectedOptionID != ""
}

type Session struct {
	ID           string                  `json:"id"`
	Mode         SessionMode             `json:"mode"`
	Config       SessionConfig           `json:"config"`
	Questions    []SelectedQuestion      `json:"questions"`
	Answers      map[string]AnswerRecord `json:"userAnswers"`
	CurrentIndex int                     `json:"currentQuestionIndex"`
	StartTime    time.Time               `json:"startTime"`
	EndTime      *time.Time              `json:"endTime,omitempty"`
	Offline      bool                    `json:"isOffline"`
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	c := s
	c.Config = s.Config.Clone()
	c.Questions = make([]SelectedQuestion, len(s.Questions))
	for i, q := range s.Questions {
		c.Questions[i] = SelectedQuestion{Question: q.Question.Clone(), Sequence: q.Sequence}
	}
	c.Answers = make(map[string]AnswerRecord, len(s.Answers))
	for id, a := range s.Answers {
		if a.IsCorrect != nil {
			v := *a.IsCorrect
			a.IsCorrect = &v
		}
		if a.ElapsedSeconds != nil {
			v := *a.ElapsedSeconds
			a.ElapsedSeconds = &v
		}
		c.Answers[id] = a
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return c
}

// SessionResult is the frozen outcome of a submitted test session.
type SessionResult struct {
	ID           string    `json:"id"`
	Session      Session   `json:"session"`
	Score        float64   `json:"score"`
	CorrectCount int       `json:"correctAnswersCount"`
	TotalCount   int       `json:"totalQuestions"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r SessionResult) Offline() bool { return r.Session.Offline }

// PendingSyncResult holds an offline result until it is reconciled.
type PendingSyncResult struct {
	Result   SessionResult `json:"result"`
	QueuedAt time.Time     `json:"queuedAt"`
}

type OfflineBundle struct {
	ID        string             `json:"bundleId"`
	Config    SessionConfig      `json:"config"`
	Questions []SelectedQuestion `json:"questions"`
	CreatedAt time.Time          `json:"downloadedAt"`
	GroupName string             `json:"groupName"`
}
