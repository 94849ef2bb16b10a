package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// knownRoutes bounds the path label. Anything else is reported as "other".
var knownRoutes = map[string]bool{
	"/healthz":       true,
	"/metrics":       true,
	"/openapi.yaml":  true,
	"/v1/score":      true,
	"/v1/score/file": true,
	"/v1/compare":    true,
	"/v1/transform":  true,
	"/v1/jobs":       true,
}

// HTTPServerMetrics is the API metric set: request metrics on top of the
// scoring observer.
type HTTPServerMetrics struct {
	*ScoringMetrics

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	m := &HTTPServerMetrics{
		ScoringMetrics: newScoringMetrics(service),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"service", "method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hlc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency. Scoring calls wait on every model service.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"service", "method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "hlc",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "HTTP requests currently being served.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.inFlight)
	return m
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		recorder := &codeRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := normalizePath(r.URL.Path)
		m.requests.WithLabelValues(m.service, r.Method, path, strconv.Itoa(recorder.code)).Inc()
		m.latency.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if knownRoutes[path] {
		return path
	}
	if id, ok := strings.CutPrefix(path, "/v1/jobs/"); ok && id != "" && !strings.Contains(id, "/") {
		return "/v1/jobs/{job_id}"
	}
	return "other"
}

type codeRecorder struct {
	http.ResponseWriter
	code    int
	written bool
}

func (w *codeRecorder) WriteHeader(code int) {
	if !w.written {
		w.code = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *codeRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *codeRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
