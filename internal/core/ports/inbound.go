package ports

import (
	"context"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// TextAnalyzer is the inbound contract for scoring and diagnosing a Document.
type TextAnalyzer interface {
	Analyze(ctx context.Context, doc *domain.Document, opts domain.AnalyzeOptions) (*domain.Report, error)
}

// TransformationService is the inbound contract for the feedback loop.
type TransformationService interface {
	Compare(ctx context.Context, original, transformed *domain.Document, before *domain.Score, opts domain.AnalyzeOptions) (*domain.TransformationResult, error)
	TransformAndCompare(ctx context.Context, original *domain.Document, req domain.TransformRequest, opts domain.AnalyzeOptions) (*domain.TransformationResult, error)
}

// ScoringJobSubmitter queues documents for asynchronous analysis.
type ScoringJobSubmitter interface {
	Submit(ctx context.Context, text, language string, opts domain.AnalyzeOptions) (*domain.ScoringJob, error)
}

// ScoringJobReader is the inbound read model for job state.
type ScoringJobReader interface {
	GetByID(ctx context.Context, id string) (*domain.ScoringJob, error)
}

// ScoringJobProcessor is the inbound contract for asynchronous job processing.
type ScoringJobProcessor interface {
	ProcessByID(ctx context.Context, jobID string) error
}
