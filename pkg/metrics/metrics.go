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

	// ProviderRequestDuration tracks upstream provider call duration.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Upstream provider request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"family", "model", "status"},
	)

	// ProviderTokensTotal tracks estimated prompt tokens sent upstream.
	ProviderTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_tokens_total",
			Help: "Estimated prompt tokens sent to providers",
		},
		[]string{"model"},
	)

	// ExchangesTotal tracks exchanges by terminal outcome.
	ExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchanges_total",
			Help: "Completed exchanges by outcome",
		},
		[]string{"outcome"},
	)

	// PollAttemptsTotal tracks transcription poll round trips.
	PollAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcription_poll_attempts_total",
			Help: "Total transcription status polls issued",
		},
	)

	// TranscriptionJobsTotal tracks transcription jobs by result.
	TranscriptionJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcription_jobs_total",
			Help: "Transcription jobs by result",
		},
		[]string{"result"},
	)

	// SpeechStreamsActive tracks in-flight TTS audio streams.
	SpeechStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speech_streams_active",
			Help: "Number of active speech synthesis streams",
		},
	)

	// ConversationsEvictedTotal tracks store capacity evictions.
	ConversationsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_evicted_total",
			Help: "Conversations evicted by the capacity bound",
		},
	)

	// StoreWriteFailuresTotal tracks persistence write failures (non-fatal).
	StoreWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_write_failures_total",
			Help: "Persistence write failures, downgraded to warnings",
		},
		[]string{"collection"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordProviderRequest records metrics for one upstream provider call.
func RecordProviderRequest(family, model, status string, duration float64, promptTokens int) {
	ProviderRequestDuration.WithLabelValues(family, model, status).Observe(duration)
	if promptTokens > 0 {
		ProviderTokensTotal.WithLabelValues(model).Add(float64(promptTokens))
	}
}
