package signals

import (
	"context"
	"math"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// AIProbability inverts the classifier's machine-authorship probability so
// that higher stays more human-like.
type AIProbability struct {
	measure externalMeasure
}

func NewAIProbability(classifier ports.AIProbabilityClassifier, opts ExternalOptions) *AIProbability {
	return &AIProbability{
		measure: externalMeasure{
			signal: domain.SignalAIProbability,
			model:  classifier.ModelID(),
			opts:   opts.normalize(),
			call:   classifier.AIProbability,
		},
	}
}

func (a *AIProbability) Signal() domain.SignalName {
	return domain.SignalAIProbability
}

func (a *AIProbability) ExtractDocument(ctx context.Context, in ports.ExtractionInput) domain.SignalValue {
	return a.measure.document(ctx, in, invertProbability)
}

func (a *AIProbability) ExtractSentences(ctx context.Context, in ports.ExtractionInput) []domain.SignalValue {
	return a.measure.sentences(ctx, in, invertProbability)
}

func invertProbability(p float64) domain.SignalValue {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return domain.Unavailable(domain.ReasonMalformedResponse)
	}
	return domain.MeasuredRaw(1-p, p)
}
