// Package metrics exposes Prometheus collectors for tool calls, sessions and
// HTTP traffic, fed from progress events.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/tools"
)

var knownTools = func() map[string]bool {
	m := make(map[string]bool)
	for _, d := range tools.Definitions() {
		m[d.Name] = true
	}
	return m
}()

// toolLabel keeps caller-supplied tool names out of label values.
func toolLabel(name string) string {
	if knownTools[name] {
		return name
	}
	return "unknown"
}

// Metrics holds the service collectors.
type Metrics struct {
	ToolCallsTotal    *prometheus.CounterVec
	ToolCallDuration  *prometheus.HistogramVec
	SessionsOpened    prometheus.Counter
	ReportsSubmitted  *prometheus.CounterVec
	ChunksPerDocument prometheus.Histogram
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ToolCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citeshield_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "outcome"},
		),
		ToolCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "citeshield_tool_call_duration_seconds",
				Help:    "Duration of successful tool calls in seconds",
				Buckets: []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"tool"},
		),
		SessionsOpened: f.NewCounter(
			prometheus.CounterOpts{
				Name: "citeshield_sessions_opened_total",
				Help: "Total number of briefs chunked into sessions",
			},
		),
		ReportsSubmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citeshield_reports_submitted_total",
				Help: "Total number of verification reports by overall assessment",
			},
			[]string{"overall"},
		),
		ChunksPerDocument: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "citeshield_chunks_per_document",
				Help:    "Number of sections produced per document",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citeshield_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "citeshield_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// Observe implements progress.Observer.
func (m *Metrics) Observe(e progress.Event) {
	switch e.Kind {
	case progress.KindDocumentChunked:
		m.SessionsOpened.Inc()
		m.ChunksPerDocument.Observe(float64(e.Chunks))
	case progress.KindToolFinished:
		m.ToolCallsTotal.WithLabelValues(toolLabel(e.Tool), "ok").Inc()
		m.ToolCallDuration.WithLabelValues(toolLabel(e.Tool)).Observe(e.Duration.Seconds())
	case progress.KindToolFailed:
		m.ToolCallsTotal.WithLabelValues(toolLabel(e.Tool), "error").Inc()
	case progress.KindReportSubmitted:
		m.ReportsSubmitted.WithLabelValues(e.Detail).Inc()
	}
}

// RecordHTTP counts one served request.
func (m *Metrics) RecordHTTP(method string, status int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(seconds)
}
