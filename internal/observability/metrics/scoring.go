package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// ScoringMetrics records pipeline outcomes. It implements ports.ScoringObserver
// and is embedded by the API and worker metric sets.
type ScoringMetrics struct {
	service  string
	registry *prometheus.Registry

	signalOutcomes     *prometheus.CounterVec
	extractorDuration  *prometheus.HistogramVec
	scoreValue         *prometheus.HistogramVec
	degradedScores     *prometheus.CounterVec
	transformations    *prometheus.CounterVec
	transformationGain *prometheus.HistogramVec
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
}

func newScoringMetrics(service string) *ScoringMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	signalOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlc",
			Subsystem: "signal",
			Name:      "outcomes_total",
			Help:      "Document-grain signal extractions by outcome (available or unavailable reason).",
		},
		[]string{"service", "signal", "outcome"},
	)
	extractorDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hlc",
			Subsystem: "signal",
			Name:      "extractor_duration_seconds",
			Help:      "Time spent by each extractor on one document, including sentences.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "signal"},
	)
	scoreValue := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hlc",
			Subsystem: "score",
			Name:      "value",
			Help:      "Distribution of human-likeness scores (0-100).",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		},
		[]string{"service", "grain", "confidence"},
	)
	degradedScores := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlc",
			Subsystem: "score",
			Name:      "degraded_total",
			Help:      "Scores computed with at least one weighted signal unavailable.",
		},
		[]string{"service", "grain"},
	)
	transformations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlc",
			Subsystem: "transform",
			Name:      "total",
			Help:      "Transformations by mode and after-score status.",
		},
		[]string{"service", "mode", "status"},
	)
	transformationGain := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hlc",
			Subsystem: "transform",
			Name:      "score_delta",
			Help:      "Document score change after a transformation.",
			Buckets:   []float64{-30, -20, -10, -5, 0, 5, 10, 20, 30},
		},
		[]string{"service", "mode"},
	)

	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hlc",
			Subsystem: "external",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per outbound operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlc",
			Subsystem: "external",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes per outbound operation.",
		},
		[]string{"service", "operation", "to"},
	)

	registry.MustRegister(
		signalOutcomes,
		extractorDuration,
		scoreValue,
		degradedScores,
		transformations,
		transformationGain,
		breakerState,
		breakerTransitions,
	)

	return &ScoringMetrics{
		service:            service,
		registry:           registry,
		signalOutcomes:     signalOutcomes,
		extractorDuration:  extractorDuration,
		scoreValue:         scoreValue,
		degradedScores:     degradedScores,
		transformations:    transformations,
		transformationGain: transformationGain,
		breakerState:       breakerState,
		breakerTransitions: breakerTransitions,
	}
}

// Handler exposes every metric of the process, including those registered by
// the embedding metric set.
func (m *ScoringMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *ScoringMetrics) ObserveExtraction(signal domain.SignalName, duration time.Duration, document domain.SignalValue) {
	outcome := "available"
	if !document.Available {
		outcome = string(document.Reason)
	}
	m.signalOutcomes.WithLabelValues(m.service, string(signal), outcome).Inc()
	m.extractorDuration.WithLabelValues(m.service, string(signal)).Observe(duration.Seconds())
}

func (m *ScoringMetrics) ObserveScore(score *domain.Score) {
	if score == nil {
		return
	}
	m.scoreValue.WithLabelValues(m.service, string(score.Grain), string(score.Confidence.Level)).Observe(score.Value)
	if score.Degraded {
		m.degradedScores.WithLabelValues(m.service, string(score.Grain)).Inc()
	}
}

func (m *ScoringMetrics) ObserveTransformation(mode domain.TransformMode, result *domain.TransformationResult) {
	if result == nil {
		return
	}
	if mode == "" {
		mode = "compare"
	}
	m.transformations.WithLabelValues(m.service, string(mode), string(result.AfterStatus)).Inc()
	if result.Delta != nil {
		m.transformationGain.WithLabelValues(m.service, string(mode)).Observe(*result.Delta)
	}
}

// ObserveBreakerState matches resilience.Config.OnStateChange.
func (m *ScoringMetrics) ObserveBreakerState(operation, _, to string) {
	value := 0.0
	switch to {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
	m.breakerTransitions.WithLabelValues(m.service, operation, to).Inc()
}
