package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// Segmenter splits a document's text into ordered sentence spans.
type Segmenter interface {
	Segment(text string) ([]domain.SentenceSpan, error)
}

// PerplexityScorer returns the raw language-model perplexity of text.
type PerplexityScorer interface {
	Perplexity(ctx context.Context, text string) (float64, error)
	ModelID() string
}

// AIProbabilityClassifier returns the probability in [0,1] that text was machine generated.
type AIProbabilityClassifier interface {
	AIProbability(ctx context.Context, text string) (float64, error)
	ModelID() string
}

// SignalCache keeps raw external measurements for a short time so an
// immediate retry does not repeat model calls.
type SignalCache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64, ttl time.Duration) error
}

// TextTransformer produces a transformed version of a document's text.
type TextTransformer interface {
	Transform(ctx context.Context, doc *domain.Document, req domain.TransformRequest) (string, error)
}

// ProfileSource yields the active scoring profile as an immutable snapshot.
type ProfileSource interface {
	Current() domain.ScoringProfile
}

// ScoringJobRepository persists and reads asynchronous scoring jobs.
type ScoringJobRepository interface {
	Create(ctx context.Context, job *domain.ScoringJob) error
	GetByID(ctx context.Context, id string) (*domain.ScoringJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error
	SaveReport(ctx context.Context, id string, report *domain.Report) error
}

// ReportHistory stores analyzed reports locally for later review.
type ReportHistory interface {
	Save(ctx context.Context, report *domain.Report) (*domain.ReportSummary, error)
	List(ctx context.Context, limit int) ([]domain.ReportSummary, error)
	Get(ctx context.Context, id string) (*domain.Report, error)
}

// MessageQueue publishes/consumes scoring job events.
type MessageQueue interface {
	PublishScoringJob(ctx context.Context, jobID string) error
	SubscribeScoringJobs(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, body io.Reader) (string, error)
}

// ScoringObserver receives pipeline measurements. Implementations must be safe
// for concurrent use.
type ScoringObserver interface {
	ObserveExtraction(signal domain.SignalName, duration time.Duration, document domain.SignalValue)
	ObserveScore(score *domain.Score)
	ObserveTransformation(mode domain.TransformMode, result *domain.TransformationResult)
}
