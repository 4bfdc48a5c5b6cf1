// Package observe provides application-wide observability primitives for
// Voicea: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Voicea metrics.
const meterName = "github.com/voicea-dev/voicea"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts processed user utterances. Use with attribute:
	//   attribute.String("intent", ...)
	Utterances metric.Int64Counter

	// RemindersFired counts reminders that were announced.
	RemindersFired metric.Int64Counter

	// QuizSessions counts quiz runs. Use with attribute:
	//   attribute.String("outcome", "finished"|"stopped")
	QuizSessions metric.Int64Counter

	// SMSAlerts counts emergency SMS sends. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	SMSAlerts metric.Int64Counter

	// ChatRequests counts chat relay calls. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	ChatRequests metric.Int64Counter

	// --- Error counters ---

	// RecognitionErrors counts speech recognition failures.
	RecognitionErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live dialogue sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("voicea.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("voicea.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("voicea.utterances",
		metric.WithDescription("Total processed utterances by matched intent."),
	); err != nil {
		return nil, err
	}
	if met.RemindersFired, err = m.Int64Counter("voicea.reminders.fired",
		metric.WithDescription("Total reminders announced."),
	); err != nil {
		return nil, err
	}
	if met.QuizSessions, err = m.Int64Counter("voicea.quiz.sessions",
		metric.WithDescription("Total quiz runs by outcome."),
	); err != nil {
		return nil, err
	}
	if met.SMSAlerts, err = m.Int64Counter("voicea.sms.alerts",
		metric.WithDescription("Total emergency SMS sends by status."),
	); err != nil {
		return nil, err
	}
	if met.ChatRequests, err = m.Int64Counter("voicea.chat.requests",
		metric.WithDescription("Total chat relay calls by status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.RecognitionErrors, err = m.Int64Counter("voicea.recognition.errors",
		metric.WithDescription("Total speech recognition failures."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voicea.active_sessions",
		metric.WithDescription("Number of live dialogue sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voicea.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordUtterance records one processed utterance with its matched intent.
func (m *Metrics) RecordUtterance(ctx context.Context, intent string) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("intent", intent)),
	)
}

// RecordQuizSession records one finished or stopped quiz run.
func (m *Metrics) RecordQuizSession(ctx context.Context, outcome string) {
	m.QuizSessions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordSMSAlert records one emergency SMS send attempt.
func (m *Metrics) RecordSMSAlert(ctx context.Context, status string) {
	m.SMSAlerts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordChatRequest records one chat relay call.
func (m *Metrics) RecordChatRequest(ctx context.Context, status string) {
	m.ChatRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
