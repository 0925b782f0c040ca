package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

type stubChecker struct{ err error }

func (c stubChecker) Ping(context.Context) error { return c.err }

func newTestServer(checkers map[string]HealthChecker) *Server {
	return NewServer(DefaultConfig(), Dependencies{
		HealthCheckers: checkers,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleHealth_AllUp(t *testing.T) {
	s := newTestServer(map[string]HealthChecker{
		"postgres": stubChecker{},
		"redis":    stubChecker{},
	})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestHandleHealth_DependencyDown(t *testing.T) {
	s := newTestServer(map[string]HealthChecker{
		"postgres": stubChecker{},
		"redis":    stubChecker{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWriteDomainError_StatusMapping(t *testing.T) {
	s := newTestServer(nil)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrModuleNotFound, http.StatusNotFound, "not_found"},
		{"invalid argument", shared.ErrInvalidModuleStatus, http.StatusBadRequest, "invalid_argument"},
		{"insufficient balance", shared.ErrCostExceedsBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
		{"invalid state", shared.ErrRequestAlreadyClosed, http.StatusConflict, "invalid_state"},
		{"status regression", shared.ErrStatusRegression, http.StatusConflict, "invalid_state"},
		{"store unavailable", shared.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeDomainError(rec, httptest.NewRequest(http.MethodGet, "/test", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestHandleRoot_UnknownPath(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientIP(r))
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("1.2.3.4"))

	// Limits are per client.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestPathIDValidation(t *testing.T) {
	s := newTestServer(nil)

	cases := []struct {
		name   string
		method string
		path   string
	}{
		{"learner stats", http.MethodGet, "/api/v1/learners/not-a-uuid/stats"},
		{"learner achievements", http.MethodGet, "/api/v1/learners/aluno/achievements"},
		{"learner rewards", http.MethodGet, "/api/v1/learners/42/rewards"},
		{"learner submissions", http.MethodGet, "/api/v1/learners/42/submissions"},
		{"trail modules", http.MethodGet, "/api/v1/trails/logica/modules"},
		{"trail completion", http.MethodGet, "/api/v1/learners/42/trails/logica/completion"},
		{"module status", http.MethodPut, "/api/v1/learners/0e1f7a9c-3b55-4d0e-9f1a-6c2d8e4b7a10/modules/vars/status"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			// Malformed IDs are rejected at the route boundary, before
			// any handler dependency is touched.
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "invalid_argument", resp.Error.Code)
		})
	}
}

func TestStatsResponse_UsesSnakeCaseKeys(t *testing.T) {
	payload, err := json.Marshal(newStatsResponse(&achievement.Stats{
		UserID:           "0e1f7a9c-3b55-4d0e-9f1a-6c2d8e4b7a10",
		TotalXP:          1050,
		Level:            2,
		Achievements:     3,
		CompletedModules: 6,
		CompletedTrails:  1,
	}))
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(payload, &keys))
	for _, key := range []string{"user_id", "total_xp", "level", "achievements", "completed_modules", "completed_trails"} {
		assert.Contains(t, keys, key)
	}
	assert.NotContains(t, keys, "TotalXP")
}
