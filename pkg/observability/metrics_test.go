package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	handler := metrics.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tiers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)

	families, err := registry.Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "apidock_http_requests_total" {
			found = true
			require.Len(t, fam.GetMetric(), 1)
			assert.Equal(t, float64(1), fam.GetMetric()[0].GetCounter().GetValue())
			labels := map[string]string{}
			for _, l := range fam.GetMetric()[0].GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			assert.Equal(t, "GET", labels["method"])
			assert.Equal(t, "418", labels["status"])
		}
	}
	assert.True(t, found, "request counter was not registered")
}

func TestDomainCountersRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.AwardsTotal.WithLabelValues("wiki_edit").Inc()
	metrics.UpgradesTotal.WithLabelValues("bronze", "silver").Inc()
	metrics.EditsAcceptedTotal.Inc()
	metrics.EditsRejectedTotal.WithLabelValues("absolute").Inc()
	metrics.ScoreDriftTotal.Inc()
	metrics.ConfigFallbacksTotal.WithLabelValues("points").Inc()
	metrics.CacheHitsTotal.WithLabelValues("score").Inc()
	metrics.CacheMissesTotal.WithLabelValues("score").Inc()
	metrics.NotificationsTotal.WithLabelValues("grade.upgraded", "success").Inc()

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetricsHandlerServesExposition(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.EditsAcceptedTotal.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(registry).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "apidock_wiki_edits_accepted_total 1")
}
