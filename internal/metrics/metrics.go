// Package metrics holds the Prometheus collectors for completions, tool
// invocations and conversation sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	CompletionCalls   *prometheus.CounterVec
	CompletionLatency *prometheus.HistogramVec
	CompletionTokens  *prometheus.CounterVec

	ToolInvocations *prometheus.CounterVec
	ToolLatency     *prometheus.HistogramVec

	SessionsActive prometheus.Gauge
	SessionsEnded  *prometheus.CounterVec
	SessionTurns   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		CompletionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactdesk_completion_calls_total",
				Help: "Total number of completion service calls",
			},
			[]string{"model", "status"}, // status: success|error
		),
		CompletionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contactdesk_completion_latency_seconds",
				Help:    "Completion service latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"model"},
		),
		CompletionTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactdesk_completion_tokens_total",
				Help: "Tokens reported by the completion service",
			},
			[]string{"model", "type"}, // type: input|output
		),

		ToolInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactdesk_tool_invocations_total",
				Help: "Total number of tool-call directives dispatched",
			},
			[]string{"operation", "status"}, // status: success|error|not_found
		),
		ToolLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contactdesk_tool_latency_seconds",
				Help:    "Capability invocation latency in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contactdesk_sessions_active",
			Help: "Conversation sessions currently open",
		}),
		SessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactdesk_sessions_ended_total",
				Help: "Terminated conversation sessions by final status",
			},
			[]string{"status"},
		),
		SessionTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactdesk_session_user_turns",
			Help:    "User turns per terminated session",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}

	m.registry.MustRegister(
		m.CompletionCalls,
		m.CompletionLatency,
		m.CompletionTokens,
		m.ToolInvocations,
		m.ToolLatency,
		m.SessionsActive,
		m.SessionsEnded,
		m.SessionTurns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordCompletion(model string, d time.Duration, err error, usage map[string]int) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.CompletionCalls.WithLabelValues(model, status).Inc()
	m.CompletionLatency.WithLabelValues(model).Observe(d.Seconds())
	if in := usage["input_tokens"]; in > 0 {
		m.CompletionTokens.WithLabelValues(model, "input").Add(float64(in))
	}
	if out := usage["output_tokens"]; out > 0 {
		m.CompletionTokens.WithLabelValues(model, "output").Add(float64(out))
	}
}

func (m *Metrics) RecordTool(operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ToolInvocations.WithLabelValues(operation, status).Inc()
	m.ToolLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionEnded(status string, userTurns int) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsEnded.WithLabelValues(status).Inc()
	m.SessionTurns.Observe(float64(userTurns))
}
