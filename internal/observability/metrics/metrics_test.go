package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/sessions":           "/v1/sessions",
		"/v1/sessions/abc":       "/v1/sessions/{session_id}",
		"/v1/sessions/abc/stats": "/v1/sessions/{session_id}/stats",
		"/v1/extract/bulk":       "/v1/extract/bulk",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTTPMiddlewareRecordsStatus(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/sessions/xyz/stats", nil))

	body := scrape(t, m.Handler())
	want := `rff_http_requests_total{method="GET",path="/v1/sessions/{session_id}/stats",service="api",status="404"} 1`
	if !strings.Contains(body, want) {
		t.Fatalf("missing %q in:\n%s", want, body)
	}
}

func TestPipelineObservers(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.ObserveIngest(12, time.Second, nil)
	m.ObserveIngest(0, time.Second, errors.New("boom"))
	m.ObserveRetrievalStrategy("keyword", 0, errors.New("closed"))
	m.ObserveExtraction("contact", true, true, 0.9, 100*time.Millisecond)
	m.ObserveExtraction("other", false, false, 0, time.Second)
	m.ObserveBulk(4, 3, 2*time.Second)
	m.SessionsActive(2)
	m.SessionReclaimed("expired")
	m.ObserveRetry("ollama.generate")
	m.ObserveBreakerState("ollama.generate", "open")

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`rff_ingest_documents_total{status="error"} 1`,
		`rff_ingest_documents_total{status="success"} 1`,
		`rff_retrieval_strategy_runs_total{status="error",strategy="keyword"} 1`,
		`rff_extraction_fields_total{field_type="contact",outcome="value"} 1`,
		`rff_extraction_fields_total{field_type="other",outcome="error"} 1`,
		`rff_session_active 2`,
		`rff_session_reclaimed_total{reason="expired"} 1`,
		`rff_resilience_retries_total{operation="ollama.generate"} 1`,
		`rff_resilience_breaker_transitions_total{operation="ollama.generate",state="open"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestWorkerMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartRecord()
	m.FinishRecord(10*time.Millisecond, nil)
	m.ObserveQueueLag(-time.Second)
	m.ObserveQueueLag(time.Second)

	body := scrape(t, m.Handler())
	if !strings.Contains(body, `rff_worker_audit_records_total{service="worker",status="success"} 1`) {
		t.Fatalf("missing audit record counter:\n%s", body)
	}
	if !strings.Contains(body, `rff_worker_queue_lag_seconds_count{service="worker"} 1`) {
		t.Fatalf("negative lag must be ignored:\n%s", body)
	}
}
