package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	upstreamRequestsTotal  *prometheus.CounterVec
	upstreamDuration       *prometheus.HistogramVec
	transcriptionDegraded  prometheus.Counter
	feedbackOutcomes       *prometheus.CounterVec
	feedbackTokensConsumed *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interviewcoach_http_requests_total",
				Help: "Total number of HTTP requests handled.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "interviewcoach_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		upstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interviewcoach_upstream_requests_total",
				Help: "Total upstream transcription and completion API requests.",
			},
			[]string{"endpoint", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "interviewcoach_upstream_request_duration_seconds",
				Help:    "Upstream request duration in seconds.",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"endpoint", "status"},
		),
		transcriptionDegraded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "interviewcoach_transcription_degraded_total",
				Help: "Transcriptions answered with mock or fallback text instead of an upstream result.",
			},
		),
		feedbackOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interviewcoach_feedback_outcomes_total",
				Help: "Feedback requests by outcome (success, simulated, validation, budget, or gateway error kind).",
			},
			[]string{"mode", "outcome"},
		),
		feedbackTokensConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interviewcoach_feedback_tokens_total",
				Help: "Tokens reported by the completion API.",
			},
			[]string{"type"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.upstreamRequestsTotal,
		m.upstreamDuration,
		m.transcriptionDegraded,
		m.feedbackOutcomes,
		m.feedbackTokensConsumed,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "UNKNOWN"
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(route, method, statusLabel).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	statusLabel := strconv.Itoa(status)
	m.upstreamRequestsTotal.WithLabelValues(endpoint, statusLabel).Inc()
	m.upstreamDuration.WithLabelValues(endpoint, statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) IncTranscriptionDegraded() {
	if m == nil {
		return
	}
	m.transcriptionDegraded.Inc()
}

func (m *Metrics) ObserveFeedback(mode, outcome string) {
	if m == nil {
		return
	}
	m.feedbackOutcomes.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) AddFeedbackTokens(prompt, completion int) {
	if m == nil {
		return
	}
	m.feedbackTokensConsumed.WithLabelValues("prompt").Add(float64(prompt))
	m.feedbackTokensConsumed.WithLabelValues("completion").Add(float64(completion))
}
