package diagnostics

import (
	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// tieEpsilon treats metric differences below it as ties, resolved by
// canonical signal order.
const tieEpsilon = 1e-9

// secondaryShare is how close a second signal's metric must come to the
// dominant one to be cited as well.
const secondaryShare = 0.75

// Input is everything needed to explain each sentence of one document.
type Input struct {
	Document   *domain.Document
	Spans      []domain.SentenceSpan
	Vectors    []domain.SignalVector
	Scores     []*domain.Score
	Weights    map[domain.SignalName]float64
	Thresholds domain.DiagnosticThresholds
}

// Generator turns sentence signal vectors into categorized diagnostics. It is
// a pure computation: the same input always yields the same output.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Diagnose(in Input) []domain.SentenceDiagnostic {
	stats := collectStats(in.Vectors)
	repeated := repeatedWords(in.Document)
	natural := in.Thresholds.Natural
	if natural <= 0 {
		natural = domain.DefaultDiagnosticThresholds().Natural
	}

	out := make([]domain.SentenceDiagnostic, len(in.Spans))
	for i, span := range in.Spans {
		vector := domain.NewSignalVector()
		if i < len(in.Vectors) && in.Vectors[i] != nil {
			vector = in.Vectors[i]
		}
		var score *domain.Score
		if i < len(in.Scores) {
			score = in.Scores[i]
		}
		text := in.Document.SpanText(span)

		percentiles := make(map[domain.SignalName]float64, len(domain.CanonicalSignals))
		for _, name := range domain.CanonicalSignals {
			if value := vector.Get(name); value.Available {
				percentiles[name] = stats[name].percentile(value.Value)
			}
		}

		verdict := categorize(vector, score, stats, in.Weights, natural)
		out[i] = domain.SentenceDiagnostic{
			Span:            span,
			Text:            text,
			Signals:         vector,
			Score:           score,
			Percentiles:     percentiles,
			Category:        verdict.category,
			DominantSignals: verdict.dominant,
			Rationale:       rationale(verdict, vector, percentiles, stats),
			Suggestion:      suggestionFor(verdict.category),
			RewriteIdeas:    rewriteIdeas(verdict.category, text, repeated),
		}
	}
	return out
}

type verdict struct {
	category domain.Category
	dominant []domain.SignalName
	// insufficient marks a sentence without any usable weighted signal.
	insufficient bool
}

// categorize labels a sentence natural when its score clears the threshold;
// otherwise the weakest weighted signal picks the category.
func categorize(
	vector domain.SignalVector,
	score *domain.Score,
	stats map[domain.SignalName]signalStats,
	weights map[domain.SignalName]float64,
	natural float64,
) verdict {
	metrics := make([]signalMetric, 0, len(domain.CanonicalSignals))
	for _, name := range domain.CanonicalSignals {
		value := vector.Get(name)
		weight := weights[name]
		if !value.Available || weight <= 0 {
			continue
		}
		metrics = append(metrics, signalMetric{name: name, value: value.Value, weight: weight, mean: stats[name].mean})
	}
	if len(metrics) == 0 {
		return verdict{category: domain.CategoryNatural, insufficient: true}
	}

	if score != nil && score.Fraction() >= natural {
		strength := func(m signalMetric) float64 { return m.weight * (m.value - m.mean) }
		dominant := pick(metrics, strength)
		if strength(dominant[0]) <= tieEpsilon {
			dominant = pick(metrics, func(m signalMetric) float64 { return m.weight * m.value })
		}
		return verdict{category: domain.CategoryNatural, dominant: names(dominant)}
	}

	weakness := func(m signalMetric) float64 {
		shortfall := m.mean - m.value
		if shortfall < 0 {
			shortfall = 0
		}
		return m.weight * ((1 - m.value) + shortfall)
	}
	dominant := pick(metrics, weakness)
	return verdict{category: familyOf(dominant[0].name), dominant: names(dominant)}
}

type signalMetric struct {
	name   domain.SignalName
	value  float64
	weight float64
	mean   float64
}

// pick returns the best metric first, plus a runner-up close enough to cite.
// Metrics arrive in canonical order, so strict comparison keeps the earlier
// signal on ties.
func pick(metrics []signalMetric, score func(signalMetric) float64) []signalMetric {
	best := 0
	for i := 1; i < len(metrics); i++ {
		if score(metrics[i]) > score(metrics[best])+tieEpsilon {
			best = i
		}
	}
	out := []signalMetric{metrics[best]}

	top := score(metrics[best])
	second := -1
	for i := range metrics {
		if i == best {
			continue
		}
		if second == -1 || score(metrics[i]) > score(metrics[second])+tieEpsilon {
			second = i
		}
	}
	if second >= 0 && top > tieEpsilon && score(metrics[second]) >= secondaryShare*top {
		out = append(out, metrics[second])
	}
	return out
}

func names(metrics []signalMetric) []domain.SignalName {
	out := make([]domain.SignalName, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, m.name)
	}
	return out
}

func familyOf(name domain.SignalName) domain.Category {
	switch name {
	case domain.SignalPerplexity, domain.SignalAIProbability:
		return domain.CategoryPredictable
	case domain.SignalLexicalDiversity:
		return domain.CategoryGeneric
	default:
		return domain.CategoryOverlyPolished
	}
}
