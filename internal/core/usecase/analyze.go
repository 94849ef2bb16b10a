package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/diagnostics"
	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
	"github.com/kirillkom/humanlike-coach/internal/core/scoring"
)

const defaultExtractorTimeout = 20 * time.Second

// AnalyzeUseCase runs the scoring pipeline: segment, extract every signal
// concurrently, aggregate at both grains and explain each sentence.
type AnalyzeUseCase struct {
	segmenter        ports.Segmenter
	extractors       []ports.SignalExtractor
	profiles         ports.ProfileSource
	aggregator       *scoring.Aggregator
	generator        *diagnostics.Generator
	observer         ports.ScoringObserver
	extractorTimeout time.Duration
}

func NewAnalyzeUseCase(
	segmenter ports.Segmenter,
	extractors []ports.SignalExtractor,
	profiles ports.ProfileSource,
	observer ports.ScoringObserver,
	extractorTimeout time.Duration,
) *AnalyzeUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if extractorTimeout <= 0 {
		extractorTimeout = defaultExtractorTimeout
	}
	return &AnalyzeUseCase{
		segmenter:        segmenter,
		extractors:       extractors,
		profiles:         profiles,
		aggregator:       scoring.NewAggregator(),
		generator:        diagnostics.NewGenerator(),
		observer:         observer,
		extractorTimeout: extractorTimeout,
	}
}

func (uc *AnalyzeUseCase) Analyze(ctx context.Context, doc *domain.Document, opts domain.AnalyzeOptions) (*domain.Report, error) {
	if doc == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze", errors.New("document is nil"))
	}

	profile := uc.profiles.Current()
	weighting := profile.Weighting
	if opts.Weighting != nil {
		if err := opts.Weighting.Validate(); err != nil {
			return nil, err
		}
		weighting = opts.Weighting.Clone()
	}

	spans, err := uc.segmenter.Segment(doc.Text)
	if err != nil {
		return nil, fmt.Errorf("segment document: %w", err)
	}

	vectors, err := runExtractors(ctx, uc.extractors, ports.ExtractionInput{Document: doc, Spans: spans}, uc.extractorTimeout)
	if err != nil {
		return nil, err
	}
	for _, extractor := range uc.extractors {
		signal := extractor.Signal()
		uc.observer.ObserveExtraction(signal, vectors.durations[signal], vectors.document.Get(signal))
	}

	score, err := uc.aggregator.Aggregate(vectors.document, weighting, domain.GrainDocument)
	if err != nil {
		return nil, wrapAggregateError("score document", err)
	}

	sentenceScores := make([]*domain.Score, len(spans))
	for i, vector := range vectors.sentences {
		sentenceScore, err := uc.aggregator.Aggregate(vector, weighting, domain.GrainSentence)
		if err != nil {
			if domain.IsKind(err, domain.ErrInsufficientSignal) {
				continue
			}
			return nil, wrapAggregateError("score sentence", err)
		}
		sentenceScores[i] = sentenceScore
	}

	sentences := uc.generator.Diagnose(diagnostics.Input{
		Document:   doc,
		Spans:      spans,
		Vectors:    vectors.sentences,
		Scores:     sentenceScores,
		Weights:    weighting.TableFor(domain.GrainSentence),
		Thresholds: profile.Diagnostics,
	})

	report := &domain.Report{
		Document:     doc,
		Spans:        spans,
		Score:        score,
		Sentences:    sentences,
		SignalIssues: collectSignalIssues(vectors),
		Profile:      profile.Name,
	}
	uc.observer.ObserveScore(score)

	slog.Debug("document_analyzed",
		"document_id", doc.ID,
		"sentences", len(spans),
		"score", score.Value,
		"confidence", score.Confidence.Level,
		"profile", profile.Name,
	)
	return report, nil
}

func wrapAggregateError(operation string, err error) error {
	var insufficient *domain.InsufficientSignalError
	if errors.As(err, &insufficient) {
		return domain.WrapError(domain.ErrInsufficientSignal, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// collectSignalIssues counts unavailable values per signal, grain and reason.
// Structural gaps (an extractor that does not support a grain) are omitted.
func collectSignalIssues(vectors signalVectors) []domain.SignalIssue {
	type key struct {
		signal domain.SignalName
		grain  domain.Grain
		reason domain.UnavailableReason
	}
	counts := make(map[key]int)
	add := func(grain domain.Grain, vector domain.SignalVector) {
		for _, name := range domain.CanonicalSignals {
			value := vector.Get(name)
			if value.Available || value.Reason == domain.ReasonUnsupportedGrain || value.Reason == domain.ReasonDisabled {
				continue
			}
			counts[key{signal: name, grain: grain, reason: value.Reason}]++
		}
	}
	add(domain.GrainDocument, vectors.document)
	for _, vector := range vectors.sentences {
		add(domain.GrainSentence, vector)
	}

	out := make([]domain.SignalIssue, 0, len(counts))
	for k, count := range counts {
		out = append(out, domain.SignalIssue{Signal: k.signal, Grain: k.grain, Reason: k.reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Signal != out[j].Signal {
			return out[i].Signal.Rank() < out[j].Signal.Rank()
		}
		if out[i].Grain != out[j].Grain {
			return out[i].Grain == domain.GrainDocument
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

type noopObserver struct{}

func (noopObserver) ObserveExtraction(domain.SignalName, time.Duration, domain.SignalValue) {}

func (noopObserver) ObserveScore(*domain.Score) {}

func (noopObserver) ObserveTransformation(domain.TransformMode, *domain.TransformationResult) {}
