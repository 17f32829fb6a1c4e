// Package metrics provides Prometheus metrics export for the chat agent.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports agent metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Chat turn metrics
	turnLatency *prometheus.HistogramVec
	turns       *prometheus.CounterVec
	turnsActive prometheus.Gauge

	// Tool invocation metrics
	toolCalls   *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec

	// LLM metrics
	llmLatency *prometheus.HistogramVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "elevate",
			Subsystem: "agent",
			Name:      "turn_latency_seconds",
			Help:      "Chat turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"outcome"},
	)

	e.turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elevate",
			Subsystem: "agent",
			Name:      "turns_total",
			Help:      "Total number of chat turns by outcome",
		},
		[]string{"outcome"},
	)

	e.turnsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "elevate",
			Subsystem: "agent",
			Name:      "turns_active",
			Help:      "Number of chat turns currently in flight",
		},
	)

	e.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elevate",
			Subsystem: "agent",
			Name:      "tool_calls_total",
			Help:      "Total number of tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	e.toolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "elevate",
			Subsystem: "agent",
			Name:      "tool_latency_seconds",
			Help:      "Tool invocation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"tool_name"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "elevate",
			Subsystem: "agent",
			Name:      "llm_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"phase"},
	)

	registry.MustRegister(
		e.turnLatency,
		e.turns,
		e.turnsActive,
		e.toolCalls,
		e.toolLatency,
		e.llmLatency,
	)

	return e
}

// RecordTurn records a completed chat turn with its outcome label.
func (e *PrometheusExporter) RecordTurn(outcome string, latency time.Duration) {
	e.turns.WithLabelValues(outcome).Inc()
	e.turnLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}

// TurnStarted marks a chat turn as in flight.
func (e *PrometheusExporter) TurnStarted() {
	e.turnsActive.Inc()
}

// TurnFinished marks a chat turn as no longer in flight.
func (e *PrometheusExporter) TurnFinished() {
	e.turnsActive.Dec()
}

// RecordToolCall records a tool invocation metric.
func (e *PrometheusExporter) RecordToolCall(toolName string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.toolCalls.WithLabelValues(toolName, status).Inc()
	e.toolLatency.WithLabelValues(toolName).Observe(latency.Seconds())
}

// RecordLLMLatency records LLM request latency for one inference phase
// ("initial" or "follow_up").
func (e *PrometheusExporter) RecordLLMLatency(phase string, latency time.Duration) {
	e.llmLatency.WithLabelValues(phase).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
