package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DeviationChecks  *prometheus.CounterVec
	Corrections      *prometheus.CounterVec
	RouteSeconds     *prometheus.HistogramVec
	ActiveGuidance   *prometheus.GaugeVec
	POIsVisited      prometheus.Counter
	Narrations       prometheus.Counter
	ProviderAPIError prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DeviationChecks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "guidance_deviation_checks_total",
			Help: "Total number of real deviation checks, labeled by result.",
		}, []string{"result"}),
		Corrections: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "guidance_corrections_total",
			Help: "Total number of back-on-track corrections, labeled by outcome.",
		}, []string{"outcome"}),
		RouteSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guidance_route_request_duration_seconds",
			Help:    "Duration of requests to the routing provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveGuidance: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "guidance_active_sessions",
			Help: "Active guidance sessions, labeled by guidance mode.",
		}, []string{"mode"}),
		POIsVisited: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "guidance_pois_visited_total",
			Help: "Total number of points of interest reached by visitors.",
		}),
		Narrations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "guidance_narrations_total",
			Help: "Total number of narrations handed to the narrator.",
		}),
		ProviderAPIError: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "guidance_provider_api_errors_total",
			Help: "Total number of errors received from the routing provider API.",
		}),
	}
}
