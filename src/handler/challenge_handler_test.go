package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/partyplaylist/backend/src/domain"
	"github.com/partyplaylist/backend/src/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubChallengeService struct {
	current     *domain.Challenge
	challenges  []*domain.Challenge
	err         error
	scheduled   bool
	gotLimit    int
	gotID       int64
	refreshes   int
	initializes int
}

func (s *stubChallengeService) GetCurrentChallenge(ctx context.Context) *domain.Challenge {
	return s.current
}

func (s *stubChallengeService) GetChallenge(ctx context.Context, id int64) (*domain.Challenge, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.current, nil
}

func (s *stubChallengeService) GetUpcomingChallenges(ctx context.Context, limit int) ([]*domain.Challenge, error) {
	s.gotLimit = limit
	return s.challenges, s.err
}

func (s *stubChallengeService) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	return s.challenges, s.err
}

func (s *stubChallengeService) ForceRefresh(ctx context.Context) (*domain.Challenge, error) {
	s.refreshes++
	if s.err != nil {
		return nil, s.err
	}
	return s.current, nil
}

func (s *stubChallengeService) InitializeSchedule(ctx context.Context) (bool, error) {
	s.initializes++
	return s.scheduled, s.err
}

type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(svc ChallengeService, secret string, limiter *rate.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetMiddlewares(context.Background(), router)

	h := NewChallengeHandler(svc)
	v1 := router.Group("/api/v1")
	v1.GET("/health", HandleHealthCheck)
	v1.GET("/challenges", h.ListChallenges)
	v1.GET("/challenges/current", h.GetCurrentChallenge)
	v1.GET("/challenges/upcoming", h.GetUpcomingChallenges)
	v1.GET("/challenges/:id", h.GetChallenge)

	operator := v1.Group("/challenges", SharedSecretMiddleware(secret))
	operator.POST("/refresh", RateLimitMiddleware(limiter), h.ForceRefresh)
	operator.POST("/schedule", h.InitializeSchedule)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, headers map[string]string) (int, testResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func sampleChallenge(id int64) *domain.Challenge {
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	end := start.Add(7*24*time.Hour - time.Millisecond)
	return &domain.Challenge{
		ID:        id,
		Title:     "Songs with a color in the title",
		Emoji:     "🎨",
		StartDate: utils.Ptr(start),
		EndDate:   utils.Ptr(end),
		IsActive:  true,
	}
}

func TestGetCurrentChallenge(t *testing.T) {
	t.Run("active challenge", func(t *testing.T) {
		router := newTestRouter(&stubChallengeService{current: sampleChallenge(7)}, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodGet, "/api/v1/challenges/current", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 0, resp.Code)

		var data CurrentChallengeResponse
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		require.NotNil(t, data.Challenge)
		assert.Equal(t, int64(7), data.Challenge.ID)
		assert.True(t, data.Challenge.IsActive)
	})

	t.Run("no challenge is still a success", func(t *testing.T) {
		router := newTestRouter(&stubChallengeService{}, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodGet, "/api/v1/challenges/current", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"challenge":null}`, string(resp.Data))
	})
}

func TestGetUpcomingChallenges(t *testing.T) {
	svc := &stubChallengeService{challenges: []*domain.Challenge{sampleChallenge(2), sampleChallenge(3)}}
	router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

	status, resp := doRequest(t, router, http.MethodGet, "/api/v1/challenges/upcoming", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, svc.gotLimit)

	var data ChallengeListResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 2, data.Count)

	status, _ = doRequest(t, router, http.MethodGet, "/api/v1/challenges/upcoming?limit=10", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10, svc.gotLimit)

	for _, query := range []string{"limit=51", "limit=-2", "limit=abc"} {
		status, resp = doRequest(t, router, http.MethodGet, "/api/v1/challenges/upcoming?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, status, query)
		assert.Equal(t, 1001, resp.Code, query)
	}
}

func TestGetChallenge(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubChallengeService{current: sampleChallenge(4)}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodGet, "/api/v1/challenges/4", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(4), svc.gotID)

		var data domain.Challenge
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, int64(4), data.ID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubChallengeService{err: domain.NewError(domain.ErrorCodeResourceNotFound, errors.New("challenge 9 not found"), domain.WithMsg("Challenge not found"))}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodGet, "/api/v1/challenges/9", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, 1002, resp.Code)
		assert.Equal(t, "Challenge not found", resp.Message)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := &stubChallengeService{}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		for _, id := range []string{"0", "-3", "abc"} {
			status, resp := doRequest(t, router, http.MethodGet, "/api/v1/challenges/"+id, nil)
			assert.Equal(t, http.StatusBadRequest, status, id)
			assert.Equal(t, 1001, resp.Code, id)
		}
		assert.Zero(t, svc.gotID)
	})
}

func TestListChallenges_Error(t *testing.T) {
	svc := &stubChallengeService{err: domain.NewError(domain.ErrorCodeRemoteProcess, errors.New("connection reset"))}
	router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

	status, resp := doRequest(t, router, http.MethodGet, "/api/v1/challenges", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, 1006, resp.Code)
	assert.Equal(t, "connection reset", resp.Message)
}

func TestSharedSecretMiddleware(t *testing.T) {
	svc := &stubChallengeService{current: sampleChallenge(1)}
	router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

	status, resp := doRequest(t, router, http.MethodPost, "/api/v1/challenges/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing API secret", resp.Message)

	status, resp = doRequest(t, router, http.MethodPost, "/api/v1/challenges/refresh", map[string]string{"X-API-Secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid API secret", resp.Message)
	assert.Zero(t, svc.refreshes)

	status, _ = doRequest(t, router, http.MethodPost, "/api/v1/challenges/refresh", map[string]string{"X-API-Secret": "secret"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, svc.refreshes)
}

func TestRateLimitMiddleware(t *testing.T) {
	svc := &stubChallengeService{current: sampleChallenge(1)}
	router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Every(time.Hour), 2))
	headers := map[string]string{"X-API-Secret": "secret"}

	for i := 0; i < 2; i++ {
		status, _ := doRequest(t, router, http.MethodPost, "/api/v1/challenges/refresh", headers)
		assert.Equal(t, http.StatusOK, status)
	}

	status, resp := doRequest(t, router, http.MethodPost, "/api/v1/challenges/refresh", headers)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, 1007, resp.Code)
	assert.Equal(t, 2, svc.refreshes)
}

func TestInitializeSchedule(t *testing.T) {
	headers := map[string]string{"X-API-Secret": "secret"}

	t.Run("scheduled", func(t *testing.T) {
		svc := &stubChallengeService{scheduled: true, current: sampleChallenge(1)}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodPost, "/api/v1/challenges/schedule", headers)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "Schedule initialized", resp.Message)

		var data InitializeScheduleResponse
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.True(t, data.Scheduled)
		require.NotNil(t, data.Current)
		assert.Equal(t, int64(1), data.Current.ID)
	})

	t.Run("nothing to schedule", func(t *testing.T) {
		svc := &stubChallengeService{}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodPost, "/api/v1/challenges/schedule", headers)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Nothing to schedule", resp.Message)
		assert.Equal(t, 1, svc.initializes)
	})

	t.Run("lease held elsewhere", func(t *testing.T) {
		svc := &stubChallengeService{err: domain.NewError(domain.ErrorCodeResourceConflict, errors.New("rotation tick already in progress"), domain.WithMsg("Rotation in progress on another instance, retry shortly"))}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodPost, "/api/v1/challenges/schedule", headers)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, 1008, resp.Code)
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		svc := &stubChallengeService{err: errors.New("boom")}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodPost, "/api/v1/challenges/schedule", headers)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, 1005, resp.Code)
		assert.Equal(t, "boom", resp.Message)
	})

	t.Run("failure", func(t *testing.T) {
		svc := &stubChallengeService{err: domain.NewError(domain.ErrorCodeRemoteProcess, errors.New("tx aborted"), domain.WithMsg("Failed to initialize the challenge schedule"))}
		router := newTestRouter(svc, "secret", rate.NewLimiter(rate.Inf, 1))

		status, resp := doRequest(t, router, http.MethodPost, "/api/v1/challenges/schedule", headers)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "Failed to initialize the challenge schedule", resp.Message)
	})
}

func TestHandleHealthCheck(t *testing.T) {
	router := newTestRouter(&stubChallengeService{}, "secret", rate.NewLimiter(rate.Inf, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
}
