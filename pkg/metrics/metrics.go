// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// DraftGenerationDuration tracks LLM draft generation duration.
	DraftGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "draft_generation_duration_seconds",
			Help:    "LLM draft generation duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// DraftTokensTotal tracks LLM tokens used for draft generation.
	DraftTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_tokens_total",
			Help: "Total LLM tokens processed for drafts",
		},
		[]string{"model", "direction"},
	)

	// SendsTotal tracks send attempts by action and outcome.
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sends_total",
			Help: "Total send attempts",
		},
		[]string{"action", "status"},
	)

	// SafetyVerdictsTotal tracks classifier verdicts.
	SafetyVerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_verdicts_total",
			Help: "Total safety classifications by verdict",
		},
		[]string{"verdict"},
	)

	// CacheReads tracks session cache detail reads by result.
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_cache_reads_total",
			Help: "Session cache detail reads by result (hit, stale, miss, joined)",
		},
		[]string{"result"},
	)

	// SessionsActive tracks live inbox sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inbox_sessions_active",
			Help: "Number of live inbox sessions",
		},
	)

	// RefreshEventsTotal tracks processed refresh push events.
	RefreshEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_events_total",
			Help: "Refresh push events processed by scope",
		},
		[]string{"scope"},
	)

	// WSConnectionsActive tracks active websocket push connections.
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of active websocket push connections",
		},
	)

	// ConversationsIngested tracks inbound guest messages ingested.
	ConversationsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inbound_messages_total",
			Help: "Inbound guest messages ingested",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDraftGeneration records metrics for one LLM draft generation.
func RecordDraftGeneration(model, status string, duration float64, tokensIn, tokensOut int) {
	DraftGenerationDuration.WithLabelValues(model, status).Observe(duration)
	DraftTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	DraftTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
