package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func TestNormalizePathBoundsCardinality(t *testing.T) {
	for path, want := range map[string]string{
		"/v1/jobs/4f1c":     "/v1/jobs/{job_id}",
		"/v1/jobs":          "/v1/jobs",
		"/v1/score":         "/v1/score",
		"/v1/jobs/4f1c/raw": "other",
		"/wp-login.php":     "other",
	} {
		if got := normalizePath(path); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestHTTPMiddlewareRecordsStatus(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))

	got := testutil.ToFloat64(m.requests.WithLabelValues("api", http.MethodGet, "/v1/jobs/{job_id}", "418"))
	if got != 1 {
		t.Fatalf("expected one recorded request, got %v", got)
	}
}

func TestScoringMetricsObservations(t *testing.T) {
	m := NewHTTPServerMetrics("api")

	m.ObserveExtraction(domain.SignalPerplexity, 20*time.Millisecond, domain.Unavailable(domain.ReasonTimeout))
	m.ObserveExtraction(domain.SignalBurstiness, time.Millisecond, domain.Measured(0.5))
	if got := testutil.ToFloat64(m.signalOutcomes.WithLabelValues("api", "perplexity", "timeout")); got != 1 {
		t.Fatalf("expected timeout outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.signalOutcomes.WithLabelValues("api", "burstiness", "available")); got != 1 {
		t.Fatalf("expected available outcome, got %v", got)
	}

	m.ObserveScore(&domain.Score{Value: 55, Grain: domain.GrainDocument, Degraded: true, Confidence: domain.Confidence{Level: domain.ConfidenceReduced}})
	m.ObserveScore(nil)
	if got := testutil.ToFloat64(m.degradedScores.WithLabelValues("api", "document")); got != 1 {
		t.Fatalf("expected one degraded score, got %v", got)
	}

	delta := 12.5
	m.ObserveTransformation(domain.ModeRewrite, &domain.TransformationResult{AfterStatus: domain.AfterAvailable, Delta: &delta})
	m.ObserveTransformation("", &domain.TransformationResult{AfterStatus: domain.AfterUnavailable})
	if got := testutil.ToFloat64(m.transformations.WithLabelValues("api", "compare", "unavailable")); got != 1 {
		t.Fatalf("expected compare transformation, got %v", got)
	}
}

func TestWorkerMetricsJobLifecycle(t *testing.T) {
	m := NewWorkerMetrics("worker")
	boom := errors.New("boom")
	if err := m.TrackJob(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("TrackJob must return the job error, got %v", err)
	}
	_ = m.TrackJob(func() error {
		return domain.WrapError(domain.ErrTemporary, "score", boom)
	})
	_ = m.TrackJob(func() error { return nil })
	m.ObserveQueueLag(-time.Second)

	for outcome, want := range map[string]float64{"error": 1, "temporary": 1, "success": 1} {
		if got := testutil.ToFloat64(m.jobs.WithLabelValues("worker", outcome)); got != want {
			t.Fatalf("outcome %s = %v, want %v", outcome, got, want)
		}
	}
	if got := testutil.ToFloat64(m.running); got != 0 {
		t.Fatalf("expected no running jobs, got %v", got)
	}
	if got := testutil.CollectAndCount(m.queueLag); got != 1 {
		t.Fatalf("expected queue lag histogram, got %d series", got)
	}

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(res.Body.String(), "hlc_worker_jobs_total") || !strings.Contains(res.Body.String(), "go_goroutines") {
		t.Fatalf("expected worker and runtime metrics in exposition")
	}
}

func TestObserveBreakerState(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.ObserveBreakerState("classifier.classify", "closed", "open")
	if got := testutil.ToFloat64(m.breakerState.WithLabelValues("worker", "classifier.classify")); got != 2 {
		t.Fatalf("expected open state, got %v", got)
	}
	m.ObserveBreakerState("classifier.classify", "open", "half-open")
	m.ObserveBreakerState("classifier.classify", "half-open", "closed")
	if got := testutil.ToFloat64(m.breakerState.WithLabelValues("worker", "classifier.classify")); got != 0 {
		t.Fatalf("expected closed state, got %v", got)
	}
	if got := testutil.ToFloat64(m.breakerTransitions.WithLabelValues("worker", "classifier.classify", "open")); got != 1 {
		t.Fatalf("expected one open transition, got %v", got)
	}
}
