// File: internal/handler/http/metrics_test.go
package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "skillsflow_auth_requests_total")
	assert.Contains(t, body, "skillsflow_auth_request_duration_seconds")
	assert.Contains(t, body, `skillsflow_auth_login_attempts_total{status="success"}`)
	assert.Contains(t, body, `skillsflow_auth_responses_total{status="200"}`)
}

func TestTracingMiddleware_AssignsRequestID(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
