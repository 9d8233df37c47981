package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	registry *prometheus.Registry

	mutations          *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	components         prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewCollector creates a collector registered on its own registry, together
// with the Go runtime and process collectors
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridmock_components_mutations_total",
				Help: "Total number of successful component mutations",
			},
			[]string{"operation"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridmock_validation_failures_total",
				Help: "Total number of rejected component payloads",
			},
			[]string{"operation"},
		),
		components: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridmock_components",
				Help: "Current number of components in the catalog",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridmock_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridmock_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		),
	}
}

// RecordMutation counts a successful create, update or delete
func (c *Collector) RecordMutation(operation string) {
	c.mutations.WithLabelValues(operation).Inc()
}

// RecordValidationFailure counts a rejected payload
func (c *Collector) RecordValidationFailure(operation string) {
	c.validationFailures.WithLabelValues(operation).Inc()
}

// SetComponentCount sets the catalog size gauge
func (c *Collector) SetComponentCount(count int) {
	c.components.Set(float64(count))
}

// ObserveRequest records one served HTTP request
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
