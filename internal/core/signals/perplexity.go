package signals

import (
	"context"
	"math"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// PerplexityAnchors bound the raw perplexity range mapped onto [0,1] on a log
// scale. At or below Low the text is as predictable as typical model output.
type PerplexityAnchors struct {
	Low  float64
	High float64
}

func DefaultPerplexityAnchors() PerplexityAnchors {
	return PerplexityAnchors{Low: 15, High: 100}
}

func (a PerplexityAnchors) normalizeAnchors() PerplexityAnchors {
	if a.Low <= 0 || a.High <= a.Low {
		return DefaultPerplexityAnchors()
	}
	return a
}

func (a PerplexityAnchors) Normalize(perplexity float64) domain.SignalValue {
	if math.IsNaN(perplexity) || math.IsInf(perplexity, 0) || perplexity <= 0 {
		return domain.Unavailable(domain.ReasonMalformedResponse)
	}
	lo, hi := math.Log(a.Low), math.Log(a.High)
	return domain.MeasuredRaw((math.Log(perplexity)-lo)/(hi-lo), perplexity)
}

type Perplexity struct {
	anchors PerplexityAnchors
	measure externalMeasure
}

func NewPerplexity(scorer ports.PerplexityScorer, anchors PerplexityAnchors, opts ExternalOptions) *Perplexity {
	return &Perplexity{
		anchors: anchors.normalizeAnchors(),
		measure: externalMeasure{
			signal: domain.SignalPerplexity,
			model:  scorer.ModelID(),
			opts:   opts.normalize(),
			call:   scorer.Perplexity,
		},
	}
}

func (p *Perplexity) Signal() domain.SignalName {
	return domain.SignalPerplexity
}

func (p *Perplexity) ExtractDocument(ctx context.Context, in ports.ExtractionInput) domain.SignalValue {
	return p.measure.document(ctx, in, p.anchors.Normalize)
}

func (p *Perplexity) ExtractSentences(ctx context.Context, in ports.ExtractionInput) []domain.SignalValue {
	return p.measure.sentences(ctx, in, p.anchors.Normalize)
}
