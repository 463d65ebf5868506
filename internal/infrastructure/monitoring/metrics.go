package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. It implements trace.Recorder so
// the tracer reports span lifecycle counts without depending on this
// package.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tracer metrics
	SpansStarted  *prometheus.CounterVec
	SpansFinished *prometheus.CounterVec
	SpanDuration  *prometheus.HistogramVec
	Faults        *prometheus.CounterVec
	ChainsGauge   prometheus.Gauge
	ActiveGauge   prometheus.Gauge
	Evictions     *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector registered on a dedicated
// registry (callers expose it via Handler).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainspan_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chainspan_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SpansStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainspan_spans_started_total",
				Help: "Total number of spans started",
			},
			[]string{"layer"},
		),
		SpansFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainspan_spans_finished_total",
				Help: "Total number of spans finished",
			},
			[]string{"layer"},
		),
		SpanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chainspan_span_duration_seconds",
				Help:    "Span duration from start to finish in seconds",
				Buckets: []float64{.0001, .001, .01, .1, 1, 10, 60},
			},
			[]string{"layer"},
		),
		Faults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainspan_tracing_faults_total",
				Help: "Tracing faults swallowed at the tracer boundary",
			},
			[]string{"kind"},
		),
		ChainsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainspan_chains_stored",
				Help: "Number of chains currently stored",
			},
		),
		ActiveGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainspan_active_spans",
				Help: "Number of started-but-unfinished spans",
			},
		),
		Evictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainspan_chains_evicted_total",
				Help: "Chains evicted by the age-based cap",
			},
			[]string{"had_active"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainspan_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// SpanStarted implements trace.Recorder.
func (m *Metrics) SpanStarted(layer string) {
	m.SpansStarted.WithLabelValues(layer).Inc()
}

// SpanFinished implements trace.Recorder.
func (m *Metrics) SpanFinished(layer string, duration time.Duration) {
	m.SpansFinished.WithLabelValues(layer).Inc()
	m.SpanDuration.WithLabelValues(layer).Observe(duration.Seconds())
}

// TracingFault implements trace.Recorder.
func (m *Metrics) TracingFault(kind string) {
	m.Faults.WithLabelValues(kind).Inc()
}

// ChainsStored implements trace.Recorder.
func (m *Metrics) ChainsStored(count int) {
	m.ChainsGauge.Set(float64(count))
}

// ChainEvicted implements trace.Recorder.
func (m *Metrics) ChainEvicted(activeDescendants bool) {
	label := "false"
	if activeDescendants {
		label = "true"
	}
	m.Evictions.WithLabelValues(label).Inc()
}

// ActiveSpans implements trace.Recorder.
func (m *Metrics) ActiveSpans(count int) {
	m.ActiveGauge.Set(float64(count))
}
