package service

import (
	"sync/atomic"
	"time"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"
)

// SessionMachine owns one active assessment from creation to termination.
// Apart from termination, its operations are expected to be called from a
// single goroutine at a time; the terminated flag is the only state shared
// with the auto-submit timer and is flipped with a compare-and-swap.
type SessionMachine struct {
	session    model.Session
	position   map[string]int
	terminated atomic.Bool
	now        func() time.Time
}

// NewSessionMachine creates an active session over an already resolved
// selection. Every selected question gets an unanswered, unbookmarked record.
// Timed test sessions get an end time; study sessions never do.
func NewSessionMachine(id string, mode model.SessionMode, cfg model.SessionConfig, questions []model.SelectedQuestion, offline bool, now func() time.Time) (*SessionMachine, error) {
	if !mode.Valid() {
		return nil, util.ErrInvalidMode
	}
	if len(questions) == 0 {
		return nil, util.ErrEmptySelection
	}
	if now == nil {
		now = time.Now
	}

	qs := make([]model.SelectedQuestion, len(questions))
	position := make(map[string]int, len(questions))
	answers := make(map[string]model.AnswerRecord, len(questions))
	for i, q := range questions {
		qs[i] = model.SelectedQuestion{Question: q.Question.Clone(), Sequence: q.Sequence}
		position[q.ID] = i
		answers[q.ID] = model.AnswerRecord{QuestionID: q.ID}
	}

	start := now()
	s := model.Session{
		ID:           id,
		Mode:         mode,
		Config:       cfg.Clone(),
		Questions:    qs,
		Answers:      answers,
		CurrentIndex: 0,
		StartTime:    start,
		Offline:      offline,
	}
	if mode == model.ModeTest && cfg.TimerDurationSec > 0 {
		end := start.Add(time.Duration(cfg.TimerDurationSec) * time.Second)
		s.EndTime = &end
	}

	return &SessionMachine{session: s, position: position, now: now}, nil
}

func (m *SessionMachine) ID() string { return m.session.ID }

func (m *SessionMachine) Mode() model.SessionMode { return m.session.Mode }

func (m *SessionMachine) Offline() bool { return m.session.Offline }

func (m *SessionMachine) Terminated() bool { return m.terminated.Load() }

// Deadline returns the timer-derived end time of a timed test session.
func (m *SessionMachine) Deadline() (time.Time, bool) {
	if m.session.Mode != model.ModeTest || m.session.EndTime == nil {
		return time.Time{}, false
	}
	return *m.session.EndTime, true
}

// Snapshot returns a deep copy of the current session state.
func (m *SessionMachine) Snapshot() model.Session {
	return m.session.Clone()
}

// RecordAnswer stores the chosen option and its correctness. Study mode locks
// a question once it has an answer; test mode keeps the last answer.
func (m *SessionMachine) RecordAnswer(questionID, optionID string, elapsedSeconds *int) error {
	if m.terminated.Load() {
		return util.ErrAlreadyTerminated
	}
	idx, ok := m.position[questionID]
	if !ok {
		return util.ErrInvalidQuestion
	}
	rec := m.session.Answers[questionID]
	if m.session.Mode == model.ModeStudy && rec.Answered() {
		return util.ErrQuestionLocked
	}

	correct := m.session.Questions[idx].IsCorrectOption(optionID)
	rec.SelectedOptionID = optionID
	rec.IsCorrect = &correct
	rec.ElapsedSeconds = nil
	if elapsedSeconds != nil {
		v := *elapsedSeconds
		rec.ElapsedSeconds = &v
	}
	m.session.Answers[questionID] = rec
	return nil
}

// IsLocked reports whether a study question already carries an answer.
func (m *SessionMachine) IsLocked(questionID string) bool {
	if m.session.Mode != model.ModeStudy {
		return false
	}
	return m.session.Answers[questionID].Answered()
}

// Navigate moves the cursor. Out of range indexes leave the state unchanged
// and report false.
func (m *SessionMachine) Navigate(index int) bool {
	if m.terminated.Load() {
		return false
	}
	if index < 0 || index >= len(m.session.Questions) {
		return false
	}
	m.session.CurrentIndex = index
	return true
}

func (m *SessionMachine) ToggleBookmark(questionID string) error {
	if m.terminated.Load() {
		return util.ErrAlreadyTerminated
	}
	rec, ok := m.session.Answers[questionID]
	if !ok {
		return util.ErrInvalidQuestion
	}
	rec.Bookmarked = !rec.Bookmarked
	m.session.Answers[questionID] = rec
	return nil
}

// Submit terminates a test session and scores it. Only the first caller wins;
// later calls get ErrAlreadyTerminated and observe no change.
func (m *SessionMachine) Submit(resultID string) (model.SessionResult, error) {
	if m.session.Mode != model.ModeTest {
		return model.SessionResult{}, util.ErrModeMismatch
	}
	if !m.terminated.CompareAndSwap(false, true) {
		return model.SessionResult{}, util.ErrAlreadyTerminated
	}

	correct := 0
	for _, a := range m.session.Answers {
		if a.IsCorrect != nil && *a.IsCorrect {
			correct++
		}
	}
	total := len(m.session.Questions)
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}

	end := m.now()
	m.session.EndTime = &end

	return model.SessionResult{
		ID:           resultID,
		Session:      m.session.Clone(),
		Score:        score,
		CorrectCount: correct,
		TotalCount:   total,
		CreatedAt:    end,
	}, nil
}

// End terminates a study session without producing a result.
func (m *SessionMachine) End() error {
	if m.session.Mode != model.ModeStudy {
		return util.ErrModeMismatch
	}
	if !m.terminated.CompareAndSwap(false, true) {
		return util.ErrAlreadyTerminated
	}
	return nil
}

// Discard terminates the session in any mode without a result. It is used
// when a new session replaces an unfinished one.
func (m *SessionMachine) Discard() bool {
	return m.terminated.CompareAndSwap(false, true)
}
