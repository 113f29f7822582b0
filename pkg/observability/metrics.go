package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Reputation metrics
	AwardsTotal          *prometheus.CounterVec
	UpgradesTotal        *prometheus.CounterVec
	ConfigFallbacksTotal *prometheus.CounterVec
	ScoreDriftTotal      prometheus.Counter

	// Wiki edit metrics
	EditsAcceptedTotal prometheus.Counter
	EditsRejectedTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apidock_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AwardsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_reputation_awards_total",
				Help: "Total number of point awards recorded",
			},
			[]string{"action"},
		),
		UpgradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_reputation_upgrades_total",
				Help: "Total number of grade tier upgrades",
			},
			[]string{"from", "to"},
		),
		ConfigFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_config_fallbacks_total",
				Help: "Total number of configuration lookups that used a fallback default",
			},
			[]string{"kind"},
		),
		ScoreDriftTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "apidock_reputation_score_drift_total",
				Help: "Total number of score drifts repaired from the event log",
			},
		),
		EditsAcceptedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "apidock_wiki_edits_accepted_total",
				Help: "Total number of wiki edits accepted by the quota validator",
			},
		),
		EditsRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_wiki_edits_rejected_total",
				Help: "Total number of wiki edits rejected by the quota validator",
			},
			[]string{"bound"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apidock_notifications_total",
				Help: "Total number of notifications delivered",
			},
			[]string{"type", "status"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AwardsTotal,
		m.UpgradesTotal,
		m.ConfigFallbacksTotal,
		m.ScoreDriftTotal,
		m.EditsAcceptedTotal,
		m.EditsRejectedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.NotificationsTotal,
	)

	return m
}

// Handler returns the Prometheus metrics HTTP handler for a registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request count and duration for every request
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}
