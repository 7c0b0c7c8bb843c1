package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xsj/overwatch-linker/internal/port/outbound/metrics"
)

const defaultNamespace = "linker"

// PrometheusRecorder exports linker and HTTP metrics.
type PrometheusRecorder struct {
	// LinkTotal counts login link attempts by outcome.
	LinkTotal *prometheus.CounterVec
	// CallbackTotal counts OAuth2 callbacks by provider.
	CallbackTotal *prometheus.CounterVec
	// HTTPRequestsTotal counts HTTP requests by route and status.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration observes HTTP latency by route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates the collectors. Call Register before use.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	if namespace == "" {
		namespace = defaultNamespace
	}

	return &PrometheusRecorder{
		LinkTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "link_total",
				Help:      "Login link attempts by outcome.",
			},
			[]string{"outcome"}, // created/returning/conflict/invalid/error
		),
		CallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oauth_callback_total",
				Help:      "OAuth2 callbacks observed by provider.",
			},
			[]string{"provider"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
	}
}

var _ metrics.Recorder = (*PrometheusRecorder)(nil)

// Register registers all collectors.
func (m *PrometheusRecorder) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.LinkTotal,
		m.CallbackTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *PrometheusRecorder) LinkOutcome(outcome string) {
	m.LinkTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusRecorder) CallbackObserved(provider string) {
	if provider == "" {
		provider = "unknown"
	}
	m.CallbackTotal.WithLabelValues(provider).Inc()
}

// ObserveHTTP records one served HTTP request.
func (m *PrometheusRecorder) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
