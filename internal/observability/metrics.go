package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	placementsTotal       *prometheus.CounterVec
	groupsCreatedTotal    prometheus.Counter
	placementRejectsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouper_http_requests_total",
			Help: "Total HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grouper_http_latency_seconds",
			Help:    "Latency distribution of HTTP requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"})

		placementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouper_placements_total",
			Help: "Committed membership mutations, by action.",
		}, []string{"action"})

		groupsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grouper_groups_created_total",
			Help: "Groups created by the placement engine.",
		})

		placementRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouper_placement_rejects_total",
			Help: "Rejected switch/move attempts, by reason.",
		}, []string{"action", "reason"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, placementsTotal, groupsCreatedTotal, placementRejectsTotal)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Placements exposes the committed-mutation counter.
func Placements() *prometheus.CounterVec {
	RegisterMetrics()
	return placementsTotal
}

// GroupsCreated exposes the group-creation counter.
func GroupsCreated() prometheus.Counter {
	RegisterMetrics()
	return groupsCreatedTotal
}

// PlacementRejects exposes the rejected-attempt counter.
func PlacementRejects() *prometheus.CounterVec {
	RegisterMetrics()
	return placementRejectsTotal
}
