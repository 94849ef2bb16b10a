package ports

import (
	"context"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// ExtractionInput is the read-only view every extractor receives.
type ExtractionInput struct {
	Document *domain.Document
	Spans    []domain.SentenceSpan
}

// SentenceText returns the text of the i-th span.
func (in ExtractionInput) SentenceText(i int) string {
	if i < 0 || i >= len(in.Spans) {
		return ""
	}
	return in.Document.SpanText(in.Spans[i])
}

// SignalExtractor owns exactly one signal name. An extractor implements
// DocumentSignalExtractor, SentenceSignalExtractor, or both.
type SignalExtractor interface {
	Signal() domain.SignalName
}

// DocumentSignalExtractor measures its signal over the whole document.
// Failures are reported as an unavailable value, never as an error.
type DocumentSignalExtractor interface {
	SignalExtractor
	ExtractDocument(ctx context.Context, in ExtractionInput) domain.SignalValue
}

// SentenceSignalExtractor measures its signal for every span. The result has
// one entry per span, indexed by span ordinal.
type SentenceSignalExtractor interface {
	SignalExtractor
	ExtractSentences(ctx context.Context, in ExtractionInput) []domain.SignalValue
}
