package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studycollab_backend/internal/config"
	"studycollab_backend/internal/middleware"
	"studycollab_backend/internal/model"
	"studycollab_backend/internal/repository"
	"studycollab_backend/internal/service"
	"studycollab_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router  *gin.Engine
	network *service.StaticNetwork
	token   string
}

func question(id string) model.Question {
	return model.Question{
		ID:               id,
		GroupID:          "g1",
		Type:             model.ItemQuestion,
		Stem:             "stem " + id,
		Kind:             model.KindSingleChoice,
		Options:          []model.QuestionOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
		CorrectAnswerIDs: []string{"a"},
		Tags:             []string{"go"},
		Upvotes:          3,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	for _, id := range []string{"q1", "q2", "q3"} {
		_, err := store.Upsert(context.Background(), question(id))
		require.NoError(t, err)
	}
	downvoted := question("q4")
	downvoted.Downvotes = 5
	_, err := store.Upsert(context.Background(), downvoted)
	require.NoError(t, err)

	tunables := service.NewTunables(config.EngineConfig{
		TickInterval:       10 * time.Millisecond,
		ImageFetchTimeout:  time.Second,
		ImageFetchParallel: 2,
		MaxImageBytes:      1 << 20,
		BuildLeaseTTL:      time.Minute,
	})
	storage := &service.StorageService{Provider: &service.LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}}
	selection := service.NewSelectionService(store, nil)
	bundles := service.NewBundleService(selection, service.NewImageFetcher(nil, storage, tunables), service.NewLocalBuildGate(), store, tunables)
	engines := service.NewEngineRegistry(service.EngineDeps{Selection: selection, Bundles: bundles, Results: store, Tunables: tunables})
	t.Cleanup(engines.Shutdown)

	network := service.NewStaticNetwork(true)
	results := service.NewResultService(store)

	session := NewSessionController(engines, selection)
	bundle := NewBundleController(bundles, engines)
	sync := NewSyncController(service.NewSyncService(store, network), results)
	result := NewResultController(results)
	health := NewHealthController(nil, nil, network)

	r := gin.New()
	r.GET("/api/health", health.HealthCheck)
	api := r.Group("/api", middleware.AuthMiddleware(testSecret))
	api.POST("/sessions", session.Start)
	api.POST("/sessions/preview", session.Preview)
	api.GET("/sessions/current", session.Current)
	api.POST("/sessions/current/answers", session.Answer)
	api.POST("/sessions/current/navigate", session.Navigate)
	api.POST("/sessions/current/bookmarks/:questionId", session.ToggleBookmark)
	api.POST("/sessions/current/submit", session.Submit)
	api.POST("/sessions/current/end", session.End)
	api.POST("/bundles", bundle.Build)
	api.GET("/bundles", bundle.List)
	api.DELETE("/bundles/:id", bundle.Delete)
	api.POST("/bundles/:id/sessions", bundle.StartSession)
	api.POST("/sync", sync.Reconcile)
	api.GET("/sync/pending", sync.Pending)
	api.GET("/results", result.History)
	api.GET("/results/performance", result.Performance)

	token, err := util.GenerateJWT("user-1", testSecret, time.Hour)
	require.NoError(t, err)
	return &testServer{router: r, network: network, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func startBody(mode string, n int) gin.H {
	return gin.H{
		"mode": mode,
		"config": gin.H{
			"groupId":              "g1",
			"numberOfQuestions":    n,
			"allowedQuestionTypes": []string{"MULTIPLE_CHOICE_SINGLE"},
		},
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	s.token = ""
	code, _ := s.do(t, http.MethodGet, "/api/sessions/current", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	s.token = "not-a-jwt"
	code, _ = s.do(t, http.MethodGet, "/api/sessions/current", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"network":"online"`)
}

func TestTestSessionFlow(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := s.do(t, http.MethodPost, "/api/sessions", startBody("test", 5))
	require.Equal(t, http.StatusCreated, code, env.Message)

	var started SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))
	require.Len(t, started.Session.Questions, 3)
	assert.Nil(t, started.RemainingSeconds)

	first := started.Session.Questions[0].ID
	code, _ = s.do(t, http.MethodPost, "/api/sessions/current/answers", gin.H{"questionId": first, "optionId": "a", "timeSpentSeconds": 7})
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/sessions/current/navigate", gin.H{"index": 2})
	require.Equal(t, http.StatusOK, code)
	var moved SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &moved))
	assert.Equal(t, 2, moved.Session.CurrentIndex)

	code, _ = s.do(t, http.MethodPost, "/api/sessions/current/bookmarks/"+first, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/sessions/current/end", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodPost, "/api/sessions/current/submit", nil)
	require.Equal(t, http.StatusOK, code)
	var result model.SessionResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 3, result.TotalCount)

	// a repeated submit returns the same result
	code, env = s.do(t, http.MethodPost, "/api/sessions/current/submit", nil)
	require.Equal(t, http.StatusOK, code)
	var again model.SessionResult
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, result.ID, again.ID)

	code, env = s.do(t, http.MethodGet, "/api/results", nil)
	require.Equal(t, http.StatusOK, code)
	var history []model.SessionResult
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 1)

	code, env = s.do(t, http.MethodGet, "/api/results/performance", nil)
	require.Equal(t, http.StatusOK, code)
	var perf []service.GroupPerformance
	require.NoError(t, json.Unmarshal(env.Data, &perf))
	require.Len(t, perf, 1)
	assert.Equal(t, 7.0, perf[0].AverageSecondsPerItem)
}

func TestStartValidation(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/sessions", startBody("exam", 5))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/sessions", startBody("test", 0))
	assert.Equal(t, http.StatusBadRequest, code)

	body := startBody("test", 2)
	body["config"].(gin.H)["selectedTags"] = []string{"rust"}
	code, _ = s.do(t, http.MethodPost, "/api/sessions", body)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env := s.do(t, http.MethodPost, "/api/sessions/preview", startBody("test", 2)["config"])
	require.Equal(t, http.StatusOK, code)
	var preview service.ConfigPreview
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	assert.Equal(t, 3, preview.EligibleCount)
	assert.Equal(t, []string{"go"}, preview.AvailableTags)
}

func TestOfflineBundleFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/bundles", gin.H{"config": startBody("test", 2)["config"], "groupName": "Go"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var bundle model.OfflineBundle
	require.NoError(t, json.Unmarshal(env.Data, &bundle))
	assert.Len(t, bundle.Questions, 2)

	code, _ = s.do(t, http.MethodPost, "/api/bundles/"+bundle.ID+"/sessions", gin.H{"mode": "test"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.do(t, http.MethodPost, "/api/sessions/current/submit", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/sync/pending", nil)
	require.Equal(t, http.StatusOK, code)
	var pending []model.PendingSyncResult
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	assert.Len(t, pending, 1)

	s.network.Set(false)
	code, _ = s.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	s.network.Set(true)
	code, env = s.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"reconciled":1}`, string(env.Data))

	code, _ = s.do(t, http.MethodDelete, "/api/bundles/"+bundle.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPost, "/api/bundles/"+bundle.ID+"/sessions", gin.H{"mode": "study"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTimedSessionCountdownRoundsUp(t *testing.T) {
	s := newTestServer(t)

	body := startBody("test", 2)
	body["config"].(gin.H)["timerDuration"] = 600
	code, env := s.do(t, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, code, env.Message)

	var started SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))
	require.NotNil(t, started.RemainingSeconds)
	assert.Equal(t, 600, *started.RemainingSeconds)

	code, env = s.do(t, http.MethodGet, "/api/sessions/current", nil)
	require.Equal(t, http.StatusOK, code)
	var current SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &current))
	require.NotNil(t, current.RemainingSeconds)
	assert.Equal(t, 600, *current.RemainingSeconds)
}
