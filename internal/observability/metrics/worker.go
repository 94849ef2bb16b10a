package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// WorkerMetrics is the scoring worker metric set.
type WorkerMetrics struct {
	*ScoringMetrics

	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	running  prometheus.Gauge
	queueLag prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	m := &WorkerMetrics{
		ScoringMetrics: newScoringMetrics(service),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlc",
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Finished scoring jobs by outcome (success, temporary, error).",
		}, []string{"service", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hlc",
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Time to score one job, by outcome.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"service", "outcome"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "hlc",
			Subsystem:   "worker",
			Name:        "jobs_running",
			Help:        "Scoring jobs currently being processed.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		queueLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "hlc",
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Time a job spent queued before a worker picked it up.",
			Buckets:     prometheus.ExponentialBuckets(0.1, 2.5, 10),
			ConstLabels: prometheus.Labels{"service": service},
		}),
	}
	m.registry.MustRegister(m.jobs, m.duration, m.running, m.queueLag)
	return m
}

// TrackJob runs process and records its outcome and duration.
func (m *WorkerMetrics) TrackJob(process func() error) error {
	m.running.Inc()
	defer m.running.Dec()

	start := time.Now()
	err := process()
	outcome := jobOutcome(err)
	m.jobs.WithLabelValues(m.service, outcome).Inc()
	m.duration.WithLabelValues(m.service, outcome).Observe(time.Since(start).Seconds())
	return err
}

func jobOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrCircuitOpen):
		return "temporary"
	default:
		return "error"
	}
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag >= 0 {
		m.queueLag.Observe(lag.Seconds())
	}
}
