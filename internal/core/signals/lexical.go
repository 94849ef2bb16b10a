package signals

import (
	"context"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

type LexicalAnchors struct {
	// Low is the MATTR below which vocabulary reads as repetitive.
	Low float64
	// Good is the MATTR treated as fully varied.
	Good     float64
	Window   int
	MinWords int
}

func DefaultLexicalAnchors() LexicalAnchors {
	return LexicalAnchors{Low: 0.45, Good: 0.60, Window: 50, MinWords: 10}
}

func (a LexicalAnchors) normalizeAnchors() LexicalAnchors {
	def := DefaultLexicalAnchors()
	if a.Low <= 0 || a.Good <= a.Low || a.Good > 1 {
		a.Low, a.Good = def.Low, def.Good
	}
	if a.Window < 2 {
		a.Window = def.Window
	}
	if a.MinWords <= 0 {
		a.MinWords = def.MinWords
	}
	return a
}

// Normalize maps a MATTR onto [0,1]: the Low anchor lands on 0.5 and the Good
// anchor on 1.
func (a LexicalAnchors) Normalize(ratio float64) domain.SignalValue {
	if ratio < a.Low {
		return domain.MeasuredRaw(0.5*ratio/a.Low, ratio)
	}
	return domain.MeasuredRaw(0.5+0.5*(ratio-a.Low)/(a.Good-a.Low), ratio)
}

type LexicalDiversity struct {
	anchors LexicalAnchors
}

func NewLexicalDiversity(anchors LexicalAnchors) *LexicalDiversity {
	return &LexicalDiversity{anchors: anchors.normalizeAnchors()}
}

func (l *LexicalDiversity) Signal() domain.SignalName {
	return domain.SignalLexicalDiversity
}

func (l *LexicalDiversity) ExtractDocument(_ context.Context, in ports.ExtractionInput) domain.SignalValue {
	tokens := words(in.Document.Text)
	if len(tokens) < l.anchors.MinWords {
		return domain.Unavailable(domain.ReasonInsufficientInput)
	}
	return l.anchors.Normalize(mattr(tokens, l.anchors.Window))
}

// ExtractSentences rates each sentence by how much of its content vocabulary
// is not reused by any other sentence. Repeats inside the sentence count
// against it as well.
func (l *LexicalDiversity) ExtractSentences(_ context.Context, in ports.ExtractionInput) []domain.SignalValue {
	content := make([][]string, len(in.Spans))
	sentencesUsing := make(map[string]int)
	for i, tokens := range sentenceWords(in) {
		content[i] = contentWords(tokens)
		seen := make(map[string]struct{}, len(content[i]))
		for _, w := range content[i] {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			sentencesUsing[w]++
		}
	}

	out := make([]domain.SignalValue, len(in.Spans))
	for i, tokens := range content {
		if len(tokens) == 0 {
			out[i] = domain.Unavailable(domain.ReasonInsufficientInput)
			continue
		}
		novel := make(map[string]struct{}, len(tokens))
		for _, w := range tokens {
			if sentencesUsing[w] == 1 {
				novel[w] = struct{}{}
			}
		}
		ratio := float64(len(novel)) / float64(len(tokens))
		out[i] = domain.MeasuredRaw(ratio, ratio)
	}
	return out
}
