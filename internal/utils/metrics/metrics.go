// File: internal/utils/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service-level Prometheus metrics, registered on the default registry and
// exposed through /metrics.
var (
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillsflow_auth_requests_total",
		Help: "The total number of HTTP requests",
	})

	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillsflow_auth_responses_total",
		Help: "The total number of HTTP responses by status code",
	}, []string{"status"})

	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skillsflow_auth_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	RequestDurationByPath = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillsflow_auth_request_duration_by_path_seconds",
		Help:    "The request duration in seconds by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillsflow_auth_login_attempts_total",
		Help: "The total number of login attempts by outcome",
	}, []string{"status"})

	TokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillsflow_auth_token_refresh_total",
		Help: "The total number of refresh-token exchanges by outcome",
	}, []string{"status"})

	TwoFactorVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillsflow_auth_two_factor_verifications_total",
		Help: "The total number of 2FA verifications by method and outcome",
	}, []string{"method", "status"})
)
