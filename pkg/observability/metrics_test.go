package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInitMetricsServesRecordedCounters(t *testing.T) {
	provider, handler, err := InitMetrics(MetricsConfig{ServiceName: "finance-service"})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	counter, err := provider.Meter("test").Int64Counter("finance_test_total")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "finance_test_total") {
		t.Errorf("expected counter in exposition, got:\n%s", body)
	}
}

func TestInitTracerDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{ServiceName: "finance-service"})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitTracerRejectsUnreadableCA(t *testing.T) {
	_, err := InitTracer(context.Background(), TracingConfig{
		ServiceName:  "finance-service",
		OTLPEndpoint: "otel-collector:4317",
		CAFile:       "/nonexistent/ca.pem",
	})
	if err == nil || !strings.Contains(err.Error(), "read CA file") {
		t.Fatalf("expected CA read error, got %v", err)
	}
}
