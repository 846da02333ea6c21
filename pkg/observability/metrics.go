package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "greeter"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds every collector, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FeatureInitDuration *prometheus.HistogramVec
	FeatureState        *prometheus.GaugeVec
	RepositoryOps       *prometheus.CounterVec
	RepositoryDuration  *prometheus.HistogramVec
	HTTPRequests        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FeatureInitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feature_init_duration_seconds",
				Help:      "Duration of feature initialization",
			},
			[]string{"feature", "outcome"},
		),
		FeatureState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "feature_state",
				Help:      "Current lifecycle state of each feature (1 for the active state)",
			},
			[]string{"feature", "state"},
		),
		RepositoryOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repository_operations_total",
				Help:      "Total number of repository operations",
			},
			[]string{"operation", "outcome"},
		),
		RepositoryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repository_operation_duration_seconds",
				Help:      "Duration of repository operations",
			},
			[]string{"operation"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FeatureInitDuration,
		m.FeatureState,
		m.RepositoryOps,
		m.RepositoryDuration,
		m.HTTPRequests,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetFeatureState marks current as the active state of feature among states.
func (m *Metrics) SetFeatureState(feature, current string, states []string) {
	if m == nil {
		return
	}
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		m.FeatureState.WithLabelValues(feature, s).Set(v)
	}
}

// ObserveFeatureInit records how long a feature took to initialize.
func (m *Metrics) ObserveFeatureInit(feature string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FeatureInitDuration.WithLabelValues(feature, outcome(err)).Observe(d.Seconds())
}

// ObserveRepository records one repository call.
func (m *Metrics) ObserveRepository(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RepositoryOps.WithLabelValues(operation, outcome(err)).Inc()
	m.RepositoryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncHTTPRequest counts one served request.
func (m *Metrics) IncHTTPRequest(method, route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, code).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
