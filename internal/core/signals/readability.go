package signals

import (
	"context"
	"math"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// minGradableWords skips fragments too short for a meaningful grade.
const minGradableWords = 3

// ReadabilityRange is the reference spread of per-sentence Flesch-Kincaid
// grades. A spread at or below Low reads as uniform; High and above as varied.
type ReadabilityRange struct {
	Low  float64
	High float64
}

func DefaultReadabilityRange() ReadabilityRange {
	return ReadabilityRange{Low: 0.5, High: 4.0}
}

func (r ReadabilityRange) normalizeRange() ReadabilityRange {
	if r.Low < 0 || r.High <= r.Low {
		return DefaultReadabilityRange()
	}
	return r
}

type ReadabilityVariation struct {
	spread ReadabilityRange
}

func NewReadabilityVariation(spread ReadabilityRange) *ReadabilityVariation {
	return &ReadabilityVariation{spread: spread.normalizeRange()}
}

func (r *ReadabilityVariation) Signal() domain.SignalName {
	return domain.SignalReadabilityVariation
}

func (r *ReadabilityVariation) ExtractDocument(_ context.Context, in ports.ExtractionInput) domain.SignalValue {
	grades, _ := r.grades(in)
	if len(grades) < 2 {
		return domain.Unavailable(domain.ReasonInsufficientInput)
	}
	_, sd := meanStd(grades)
	return domain.MeasuredRaw((sd-r.spread.Low)/(r.spread.High-r.spread.Low), sd)
}

// ExtractSentences scores each sentence by how far its grade sits from the
// document's mean grade.
func (r *ReadabilityVariation) ExtractSentences(_ context.Context, in ports.ExtractionInput) []domain.SignalValue {
	grades, perSpan := r.grades(in)
	out := make([]domain.SignalValue, len(in.Spans))
	if len(grades) < 2 {
		for i := range out {
			out[i] = domain.Unavailable(domain.ReasonInsufficientInput)
		}
		return out
	}
	mean, _ := meanStd(grades)
	for i, grade := range perSpan {
		if grade == nil {
			out[i] = domain.Unavailable(domain.ReasonInsufficientInput)
			continue
		}
		deviation := math.Abs(*grade - mean)
		out[i] = domain.MeasuredRaw(deviation/r.spread.High, *grade)
	}
	return out
}

// grades returns the gradable grades plus a per-span view where nil marks a
// span too short to grade.
func (r *ReadabilityVariation) grades(in ports.ExtractionInput) ([]float64, []*float64) {
	perSpan := make([]*float64, len(in.Spans))
	grades := make([]float64, 0, len(in.Spans))
	for i, tokens := range sentenceWords(in) {
		if len(tokens) < minGradableWords {
			continue
		}
		grade := fleschKincaidGrade(tokens)
		perSpan[i] = &grade
		grades = append(grades, grade)
	}
	return grades, perSpan
}
