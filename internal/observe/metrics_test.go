package observe_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/uz777/discordbot-yomiage/internal/observe"
)

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := observe.NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	ctx := context.Background()
	m.SpeechRequests.Add(ctx, 3)
	m.SynthesisErrors.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)
	m.SynthesisDuration.Record(ctx, 0.42)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(rm.ScopeMetrics) != 1 {
		t.Fatalf("scopes = %d, want 1", len(rm.ScopeMetrics))
	}

	got := map[string]metricdata.Metrics{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		got[metric.Name] = metric
	}

	requests, ok := got["yomiage.speech.requests"]
	if !ok {
		t.Fatal("yomiage.speech.requests not collected")
	}
	sum, ok := requests.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 3 {
		t.Errorf("speech requests = %+v, want one data point of 3", requests.Data)
	}

	sessions, ok := got["yomiage.sessions.active"]
	if !ok {
		t.Fatal("yomiage.sessions.active not collected")
	}
	upDown, ok := sessions.Data.(metricdata.Sum[int64])
	if !ok || len(upDown.DataPoints) != 1 || upDown.DataPoints[0].Value != 0 {
		t.Errorf("active sessions = %+v, want one data point of 0", sessions.Data)
	}

	duration, ok := got["yomiage.synthesis.duration"]
	if !ok {
		t.Fatal("yomiage.synthesis.duration not collected")
	}
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("synthesis duration = %+v, want one recording", duration.Data)
	}
}
