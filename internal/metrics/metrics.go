// Package metrics exposes Prometheus instruments for the ledger service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records request and ledger activity.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	transactions *prometheus.CounterVec
	points       *prometheus.CounterVec
	customers    prometheus.Gauge
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests segmented by route and status code.",
		}, []string{"route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loyalty",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for HTTP handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger transactions segmented by mode and outcome.",
		}, []string{"mode", "outcome"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "ledger",
			Name:      "points_total",
			Help:      "Points moved by accepted transactions, by mode.",
		}, []string{"mode"}),
		customers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loyalty",
			Subsystem: "ledger",
			Name:      "customers",
			Help:      "Customer records currently held.",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.transactions, m.points, m.customers)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveTransaction records a ledger transaction outcome. points is the
// absolute number of points moved and is ignored for failures.
func (m *Metrics) ObserveTransaction(mode, outcome string, points int64) {
	m.transactions.WithLabelValues(mode, outcome).Inc()
	if outcome == "ok" && points > 0 {
		m.points.WithLabelValues(mode).Add(float64(points))
	}
}

// SetCustomers updates the customer gauge.
func (m *Metrics) SetCustomers(n int) {
	m.customers.Set(float64(n))
}
