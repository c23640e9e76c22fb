package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Annotation metrics
	annotateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_annotate_requests_total",
		Help: "Total number of annotate requests",
	}, []string{"status"})

	annotateSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reader_gateway_annotate_segments",
		Help:    "Number of segments produced per annotated passage",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})

	annotateDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_annotate_dropped_entities_total",
		Help: "Entities that produced no segment",
	}, []string{"reason"}) // reason: "overlap" or "empty"

	// Capture (speech-to-text) metrics
	captureSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_capture_sessions_total",
		Help: "Capture sessions by outcome",
	}, []string{"outcome"}) // outcome: "started", "ended", "error", "unsupported"

	recognitionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_recognition_events_total",
		Help: "Recognition events delivered to listeners",
	}, []string{"kind"}) // kind: "final" or "interim"

	captureErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_capture_errors_total",
		Help: "Capture errors by normalised kind",
	}, []string{"kind"})

	// Playback (text-to-speech) metrics
	playbackTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_playback_transitions_total",
		Help: "Playback state transitions by target state",
	}, []string{"state"})

	playbackErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_playback_errors_total",
		Help: "Playback failures by normalised kind",
	}, []string{"kind"})

	synthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reader_gateway_synthesis_latency_seconds",
		Help:    "Time to fetch synthesized audio for one utterance",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Stream metrics
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reader_gateway_active_voice_streams",
		Help: "Number of open voice websocket streams",
	})

	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reader_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reader_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// RecordAnnotate records one annotate call.
func RecordAnnotate(success bool, segments, overlapping, empty int) {
	if !success {
		annotateRequests.WithLabelValues("error").Inc()
		return
	}
	annotateRequests.WithLabelValues("success").Inc()
	annotateSegments.Observe(float64(segments))
	if overlapping > 0 {
		annotateDropped.WithLabelValues("overlap").Add(float64(overlapping))
	}
	if empty > 0 {
		annotateDropped.WithLabelValues("empty").Add(float64(empty))
	}
}

// RecordCaptureSession records a capture session lifecycle outcome.
func RecordCaptureSession(outcome string) {
	captureSessions.WithLabelValues(outcome).Inc()
}

// RecordRecognitionEvent records an event delivered to a capture listener.
func RecordRecognitionEvent(isFinal bool) {
	kind := "interim"
	if isFinal {
		kind = "final"
	}
	recognitionEvents.WithLabelValues(kind).Inc()
}

// RecordCaptureError records a normalised capture error.
func RecordCaptureError(kind string) {
	captureErrors.WithLabelValues(kind).Inc()
}

// RecordPlaybackTransition records a playback state change.
func RecordPlaybackTransition(state string) {
	playbackTransitions.WithLabelValues(state).Inc()
}

// RecordPlaybackError records a playback failure.
func RecordPlaybackError(kind string) {
	playbackErrors.WithLabelValues(kind).Inc()
}

// ObserveSynthesisLatency records how long an utterance took to synthesize.
func ObserveSynthesisLatency(seconds float64) {
	synthesisLatency.Observe(seconds)
}

// StreamOpened increments the active stream gauge.
func StreamOpened() {
	activeStreams.Inc()
}

// StreamClosed decrements the active stream gauge.
func StreamClosed() {
	activeStreams.Dec()
}

// RecordAudioBytes records audio bytes processed
func RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
