package signals

import (
	"context"
	"math"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// DefaultBurstinessCVHigh is the coefficient of variation treated as fully
// human rhythm.
const DefaultBurstinessCVHigh = 1 / 1.2

// Burstiness measures variation in sentence length. Writers mix short and long
// sentences; generated text tends to keep a steady rhythm.
type Burstiness struct {
	cvHigh float64
}

func NewBurstiness(cvHigh float64) *Burstiness {
	if cvHigh <= 0 || math.IsNaN(cvHigh) {
		cvHigh = DefaultBurstinessCVHigh
	}
	return &Burstiness{cvHigh: cvHigh}
}

func (b *Burstiness) Signal() domain.SignalName {
	return domain.SignalBurstiness
}

func (b *Burstiness) ExtractDocument(_ context.Context, in ports.ExtractionInput) domain.SignalValue {
	lengths := make([]float64, 0, len(in.Spans))
	for _, tokens := range sentenceWords(in) {
		if len(tokens) > 0 {
			lengths = append(lengths, float64(len(tokens)))
		}
	}
	if len(lengths) < 2 {
		return domain.Unavailable(domain.ReasonInsufficientInput)
	}
	mean, sd := meanStd(lengths)
	if mean == 0 {
		return domain.Unavailable(domain.ReasonInsufficientInput)
	}
	cv := sd / mean
	return domain.MeasuredRaw(cv/b.cvHigh, cv)
}

// ExtractSentences scores each sentence by its length contrast with the
// neighbouring sentences.
func (b *Burstiness) ExtractSentences(_ context.Context, in ports.ExtractionInput) []domain.SignalValue {
	tokens := sentenceWords(in)
	out := make([]domain.SignalValue, len(tokens))
	if len(tokens) < 2 {
		for i := range out {
			out[i] = domain.Unavailable(domain.ReasonInsufficientInput)
		}
		return out
	}

	for i := range tokens {
		length := float64(len(tokens[i]))
		neighbours := make([]float64, 0, 2)
		for _, j := range []int{i - 1, i + 1} {
			if j >= 0 && j < len(tokens) && len(tokens[j]) > 0 {
				neighbours = append(neighbours, float64(len(tokens[j])))
			}
		}
		local, _ := meanStd(neighbours)
		if length == 0 || local == 0 {
			out[i] = domain.Unavailable(domain.ReasonInsufficientInput)
			continue
		}
		contrast := math.Abs(length-local) / local
		out[i] = domain.MeasuredRaw(contrast/b.cvHigh, contrast)
	}
	return out
}
