package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"
	"studycollab_backend/pkg/logger"
	"studycollab_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EngineDeps are shared by every per-user engine.
type EngineDeps struct {
	Selection *SelectionService
	Bundles   *BundleService
	Results   ResultStore
	Tunables  *Tunables
	Now       func() time.Time
}

// AssessmentEngine owns at most one active session for one user. State
// machine operations are serialised by mu; the auto-submit timer goes
// through the same lock and the session's terminated flag.
type AssessmentEngine struct {
	userID string
	deps   *EngineDeps

	mu     sync.Mutex
	active *SessionMachine
	timer  *SessionTimer
	last   *model.SessionResult
	// unsaved holds a scored result whose save failed. It is retried by the
	// next Submit or Start and is never dropped silently.
	unsaved *model.SessionResult
	// ended is set once the last started session has terminated, so that a
	// late Submit or End is absorbed instead of reported.
	ended bool
}

func newAssessmentEngine(userID string, deps *EngineDeps) *AssessmentEngine {
	return &AssessmentEngine{userID: userID, deps: deps}
}

func (e *AssessmentEngine) now() time.Time {
	if e.deps.Now != nil {
		return e.deps.Now()
	}
	return time.Now()
}

// Start resolves cfg against the live question pool and begins an online
// session. An unfinished session is discarded first.
func (e *AssessmentEngine) Start(ctx context.Context, cfg model.SessionConfig, mode model.SessionMode) (model.Session, error) {
	if !mode.Valid() {
		return model.Session{}, util.ErrInvalidMode
	}
	resolved, selected, err := e.deps.Selection.Resolve(ctx, cfg)
	if err != nil {
		return model.Session{}, err
	}
	return e.begin(resolved, selected, mode, false)
}

// StartFromBundle begins an offline session over a downloaded bundle.
func (e *AssessmentEngine) StartFromBundle(ctx context.Context, bundleID string, mode model.SessionMode) (model.Session, error) {
	if !mode.Valid() {
		return model.Session{}, util.ErrInvalidMode
	}
	bundle, err := e.deps.Bundles.Get(ctx, e.userID, bundleID)
	if err != nil {
		return model.Session{}, err
	}
	return e.begin(bundle.Config, bundle.Questions, mode, true)
}

func (e *AssessmentEngine) begin(cfg model.SessionConfig, selected []model.SelectedQuestion, mode model.SessionMode, offline bool) (model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.flushUnsaved(context.Background()); err != nil {
		return model.Session{}, fmt.Errorf("save previous result: %w", err)
	}

	m, err := NewSessionMachine(uuid.NewString(), mode, cfg, selected, offline, e.now)
	if err != nil {
		return model.Session{}, err
	}

	if e.active != nil {
		e.stopTimer()
		if e.active.Discard() {
			monitoring.SessionsTerminated.WithLabelValues(string(e.active.Mode()), "discarded").Inc()
			logger.Log.Info("Discarding unfinished session",
				zap.String("user_id", e.userID),
				zap.String("session_id", e.active.ID()))
		}
	}
	e.active = m
	e.ended = false

	if deadline, ok := m.Deadline(); ok {
		e.timer = StartSessionTimer(deadline, e.deps.Tunables.Get().TickInterval, e.now, func() { e.expire(m) })
	}

	monitoring.SessionsStarted.WithLabelValues(string(mode), strconv.FormatBool(offline)).Inc()
	logger.Log.Info("Session started",
		zap.String("user_id", e.userID),
		zap.String("session_id", m.ID()),
		zap.String("mode", string(mode)),
		zap.Bool("offline", offline),
		zap.Int("questions", len(selected)))
	return m.Snapshot(), nil
}

// expire is the timer callback. It only acts on the session it was armed for.
func (e *AssessmentEngine) expire(m *SessionMachine) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != m {
		return
	}
	result, err := m.Submit(uuid.NewString())
	if err != nil {
		return
	}
	if err := e.finish(context.Background(), result, "auto"); err != nil {
		logger.Log.Error("Failed to persist auto-submitted result, kept for retry",
			zap.String("user_id", e.userID),
			zap.String("session_id", m.ID()),
			zap.Error(err))
	}
}

// finish terminates the engine's view of the session and saves the result.
// LastResult only moves once the save succeeded; a failed save parks the
// result in unsaved. Caller holds mu.
func (e *AssessmentEngine) finish(ctx context.Context, result model.SessionResult, reason string) error {
	e.stopTimer()
	e.active = nil
	e.ended = true

	monitoring.SessionsTerminated.WithLabelValues(string(model.ModeTest), reason).Inc()
	logger.Log.Info("Session submitted",
		zap.String("user_id", e.userID),
		zap.String("session_id", result.Session.ID),
		zap.String("reason", reason),
		zap.Float64("score", result.Score),
		zap.Bool("offline", result.Offline()))

	if err := e.persist(ctx, result); err != nil {
		e.unsaved = &result
		return err
	}
	e.last = &result
	return nil
}

func (e *AssessmentEngine) persist(ctx context.Context, result model.SessionResult) error {
	if result.Offline() {
		pending := model.PendingSyncResult{Result: result, QueuedAt: e.now()}
		if err := e.deps.Results.AppendOfflineResult(ctx, e.userID, pending); err != nil {
			return fmt.Errorf("queue offline result: %w", err)
		}
		return nil
	}
	if err := e.deps.Results.AppendResult(ctx, e.userID, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// flushUnsaved retries the parked result, if any. Caller holds mu.
func (e *AssessmentEngine) flushUnsaved(ctx context.Context) error {
	if e.unsaved == nil {
		return nil
	}
	if err := e.persist(ctx, *e.unsaved); err != nil {
		logger.Log.Error("Retrying result save failed",
			zap.String("user_id", e.userID),
			zap.String("session_id", e.unsaved.Session.ID),
			zap.Error(err))
		return err
	}
	logger.Log.Info("Parked result saved",
		zap.String("user_id", e.userID),
		zap.String("session_id", e.unsaved.Session.ID))
	e.last = e.unsaved
	e.unsaved = nil
	return nil
}

func (e *AssessmentEngine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Submit scores the active test session. When the session was already
// terminated, e.g. by the timer, it returns a nil result and no error, unless
// that result is still unsaved: then the save is retried and its outcome
// reported.
func (e *AssessmentEngine) Submit(ctx context.Context) (*model.SessionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.active
	if m == nil {
		if e.unsaved != nil {
			if err := e.flushUnsaved(ctx); err != nil {
				return nil, err
			}
			r := *e.last
			r.Session = e.last.Session.Clone()
			return &r, nil
		}
		if e.ended {
			return nil, nil
		}
		return nil, util.ErrNoActiveSession
	}
	result, err := m.Submit(uuid.NewString())
	if errors.Is(err, util.ErrAlreadyTerminated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := e.finish(ctx, result, "manual"); err != nil {
		logger.Log.Error("Failed to persist submitted result", zap.String("user_id", e.userID), zap.Error(err))
		return nil, err
	}
	return &result, nil
}

// End closes the active study session without a result.
func (e *AssessmentEngine) End() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.active
	if m == nil {
		if e.ended {
			return nil
		}
		return util.ErrNoActiveSession
	}
	err := m.End()
	if errors.Is(err, util.ErrAlreadyTerminated) {
		return nil
	}
	if err != nil {
		return err
	}
	e.active = nil
	e.ended = true
	monitoring.SessionsTerminated.WithLabelValues(string(model.ModeStudy), "ended").Inc()
	logger.Log.Info("Study session ended", zap.String("user_id", e.userID), zap.String("session_id", m.ID()))
	return nil
}

// RecordAnswer answers a question of the active session. Unknown questions
// and locked study questions leave the session unchanged.
func (e *AssessmentEngine) RecordAnswer(questionID, optionID string, elapsedSeconds *int) (model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return model.Session{}, util.ErrNoActiveSession
	}
	if err := e.active.RecordAnswer(questionID, optionID, elapsedSeconds); err != nil {
		logger.Log.Debug("Answer ignored",
			zap.String("user_id", e.userID),
			zap.String("question_id", questionID),
			zap.Error(err))
	}
	return e.active.Snapshot(), nil
}

func (e *AssessmentEngine) Navigate(index int) (model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return model.Session{}, util.ErrNoActiveSession
	}
	e.active.Navigate(index)
	return e.active.Snapshot(), nil
}

func (e *AssessmentEngine) ToggleBookmark(questionID string) (model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return model.Session{}, util.ErrNoActiveSession
	}
	if err := e.active.ToggleBookmark(questionID); err != nil {
		logger.Log.Debug("Bookmark ignored",
			zap.String("user_id", e.userID),
			zap.String("question_id", questionID),
			zap.Error(err))
	}
	return e.active.Snapshot(), nil
}

// Current returns a copy of the active session.
func (e *AssessmentEngine) Current() (model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return model.Session{}, util.ErrNoActiveSession
	}
	return e.active.Snapshot(), nil
}

// Remaining reports the time left on a timed session.
func (e *AssessmentEngine) Remaining() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer == nil {
		return 0, false
	}
	return e.timer.Remaining(), true
}

// EngineStatus is the lightweight view pushed by the countdown stream.
type EngineStatus struct {
	SessionID        string `json:"sessionId,omitempty"`
	Active           bool   `json:"active"`
	RemainingSeconds *int   `json:"remainingSeconds,omitempty"`
}

func (e *AssessmentEngine) Status() EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return EngineStatus{}
	}
	st := EngineStatus{SessionID: e.active.ID(), Active: true}
	if e.timer != nil {
		secs := CountdownSeconds(e.timer.Remaining())
		st.RemainingSeconds = &secs
	}
	return st
}

func (e *AssessmentEngine) LastResult() *model.SessionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.last == nil {
		return nil
	}
	r := *e.last
	r.Session = e.last.Session.Clone()
	return &r
}

func (e *AssessmentEngine) Results(ctx context.Context) ([]model.SessionResult, error) {
	return e.deps.Results.ListResults(ctx, e.userID)
}

func (e *AssessmentEngine) Pending(ctx context.Context) ([]model.PendingSyncResult, error) {
	return e.deps.Results.ListPending(ctx, e.userID)
}

func (e *AssessmentEngine) Bundles(ctx context.Context) ([]model.OfflineBundle, error) {
	return e.deps.Bundles.List(ctx, e.userID)
}

// shutdown stops the timer and drops the active session without a result.
func (e *AssessmentEngine) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimer()
	if e.active != nil {
		e.active.Discard()
		e.active = nil
	}
}

// EngineRegistry hands out one engine per user.
type EngineRegistry struct {
	deps    *EngineDeps
	mu      sync.Mutex
	engines map[string]*AssessmentEngine
}

func NewEngineRegistry(deps EngineDeps) *EngineRegistry {
	return &EngineRegistry{deps: &deps, engines: make(map[string]*AssessmentEngine)}
}

func (r *EngineRegistry) For(userID string) *AssessmentEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engines[userID]
	if !ok {
		e = newAssessmentEngine(userID, r.deps)
		r.engines[userID] = e
	}
	return e
}

// Shutdown stops every running timer. Unsubmitted sessions are dropped.
func (r *EngineRegistry) Shutdown() {
	r.mu.Lock()
	engines := make([]*AssessmentEngine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.mu.Unlock()

	for _, e := range engines {
		e.shutdown()
	}
}
