package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chainspan/chainspan/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	s := New(cfg, zap.NewNop())
	t.Cleanup(func() { s.tracer.Close() })
	return s
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(t, nil)

	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChainRoutesWired(t *testing.T) {
	s := newTestServer(t, nil)

	_, traceID := s.Tracer().Start(context.Background(), "L1", "gateway", "handle")
	require.NotEmpty(t, traceID)

	for _, path := range []string{
		"/chains",
		"/chains/" + traceID,
		"/chains/" + traceID + "/validate",
		"/chains/" + traceID + "/statistics",
		"/tracing/status",
	} {
		w := httptest.NewRecorder()
		s.http.Handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestGlobalRateLimitEnforced(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		// Per-IP limit far above the global one, so the global
		// cap is what trips.
		cfg.RateLimit.RequestsPerSecond = 1000
		cfg.RateLimit.Burst = 1000
		cfg.RateLimit.GlobalRequestsPerSecond = 1
		cfg.RateLimit.GlobalBurst = 1
	})

	first := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(first, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(second, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.GlobalRequestsPerSecond = 1
		cfg.RateLimit.GlobalBurst = 1
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		s.http.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
