package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMiddleware_RecordsDurationAndStatus(t *testing.T) {
	m, reader := newTestMetrics(t)

	// Install a real tracer provider so the middleware produces valid
	// trace IDs for the correlation header.
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/notes", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("X-Correlation-ID header not set")
	}

	rm := collect(t, reader)
	met := findMetric(rm, "voicea.http.request.duration")
	if met == nil {
		t.Fatal("http duration metric not recorded")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatal("no histogram data points")
	}
	if hist.DataPoints[0].Count != 1 {
		t.Errorf("sample count = %d, want 1", hist.DataPoints[0].Count)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "HTTP GET /api/v1/notes" {
		t.Errorf("span name = %q", spans[0].Name)
	}
}

func TestCorrelationID_EmptyWithoutSpan(t *testing.T) {
	t.Parallel()
	if got := CorrelationID(t.Context()); got != "" {
		t.Errorf("CorrelationID = %q, want empty", got)
	}
}
