package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_social_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// DraftSaves tracks local draft slot writes
	DraftSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_social_draft_saves_total",
			Help: "Number of draft slot writes",
		},
		[]string{"status"},
	)

	// ApplicationUpserts tracks remote application saves
	ApplicationUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_social_application_upserts_total",
			Help: "Number of application upserts",
		},
		[]string{"status"},
	)

	// ApplicationSubmissions tracks final submissions
	ApplicationSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_social_application_submissions_total",
			Help: "Number of application submissions",
		},
		[]string{"status"},
	)

	// SuggestionRequests tracks suggestion generation outcomes
	SuggestionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_social_suggestion_requests_total",
			Help: "Number of AI suggestion requests",
		},
		[]string{"field", "outcome"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_social_active_connections",
			Help: "Number of active connections",
		},
	)
)
