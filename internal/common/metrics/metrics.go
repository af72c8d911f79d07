// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerflow_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "careerflow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "careerflow_sessions_started_total",
			Help: "Total number of application sessions started",
		},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerflow_step_transitions_total",
			Help: "Step navigation by direction and the step left",
		},
		[]string{"direction", "from_step"},
	)

	StepRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerflow_step_rejections_total",
			Help: "Next requests refused because the current step was incomplete",
		},
		[]string{"step"},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerflow_uploads_total",
			Help: "File selections by slot and outcome",
		},
		[]string{"slot", "result"},
	)

	SubmissionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "careerflow_submissions_in_flight",
			Help: "Number of submissions currently waiting on the webhook",
		},
	)
)
