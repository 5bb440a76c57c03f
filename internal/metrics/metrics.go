// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VoiceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ocastro_voice_commands_total",
		Help: "Commands interpreted, by intent and outcome",
	}, []string{"intent", "status"})

	VoiceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ocastro_voice_latency_seconds",
		Help:    "End-to-end latency of a voice or text command",
		Buckets: prometheus.DefBuckets,
	})

	SpeechErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ocastro_speech_errors_total",
		Help: "Failed transcription or synthesis calls",
	}, []string{"operation"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ocastro_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "code"})
)

// Status labels for VoiceCommandsTotal.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusNoAudio = "no_speech"
)
