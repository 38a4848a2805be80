// Package observe provides application-wide observability primitives for
// yomiage: OpenTelemetry metrics with a Prometheus exporter bridge so the
// /metrics endpoint can be scraped.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all yomiage metrics.
const meterName = "github.com/uz777/discordbot-yomiage"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SpeechRequests counts messages accepted for reading aloud. Use with
	// attribute.String("guild_id", ...).
	SpeechRequests metric.Int64Counter

	// SynthesisErrors counts failed synthesis attempts.
	SynthesisErrors metric.Int64Counter

	// PlaybackErrors counts failed playback registrations and mid-playback
	// transport failures.
	PlaybackErrors metric.Int64Counter

	// SynthesisDuration tracks external synthesis latency in seconds.
	SynthesisDuration metric.Float64Histogram

	// ActiveSessions tracks the number of live voice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// QueueDepth tracks the total number of queued speech requests across
	// all sessions.
	QueueDepth metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// external synthesis-process latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates all metric instruments using the given provider.
// Pass nil to use the global provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	m := &Metrics{}
	var err error

	if m.SpeechRequests, err = meter.Int64Counter("yomiage.speech.requests",
		metric.WithDescription("Messages accepted for reading aloud"),
	); err != nil {
		return nil, err
	}
	if m.SynthesisErrors, err = meter.Int64Counter("yomiage.synthesis.errors",
		metric.WithDescription("Failed synthesis attempts"),
	); err != nil {
		return nil, err
	}
	if m.PlaybackErrors, err = meter.Int64Counter("yomiage.playback.errors",
		metric.WithDescription("Failed playback registrations and transport failures"),
	); err != nil {
		return nil, err
	}
	if m.SynthesisDuration, err = meter.Float64Histogram("yomiage.synthesis.duration",
		metric.WithDescription("External synthesis latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if m.ActiveSessions, err = meter.Int64UpDownCounter("yomiage.sessions.active",
		metric.WithDescription("Live voice sessions"),
	); err != nil {
		return nil, err
	}
	if m.QueueDepth, err = meter.Int64UpDownCounter("yomiage.queue.depth",
		metric.WithDescription("Queued speech requests across all sessions"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide Metrics instance, creating it on
// first use with the global meter provider. Call [InitProvider] first so the
// instruments bind to the Prometheus exporter.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(nil)
		if err != nil {
			// Instrument creation only fails on invalid names; treat as a
			// programming error.
			panic(err)
		}
		defaultMetrics = m
	})
	return defaultMetrics
}
