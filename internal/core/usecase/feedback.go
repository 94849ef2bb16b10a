package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// maxAutoFocus caps how many flagged sentences are handed to a transformer
// when the caller does not pick them.
const maxAutoFocus = 5

// FeedbackUseCase closes the coaching loop: transform a document, re-analyze
// the result from scratch and report the score change.
type FeedbackUseCase struct {
	analyzer     ports.TextAnalyzer
	transformers map[domain.TransformMode]ports.TextTransformer
	observer     ports.ScoringObserver
}

func NewFeedbackUseCase(
	analyzer ports.TextAnalyzer,
	transformers map[domain.TransformMode]ports.TextTransformer,
	observer ports.ScoringObserver,
) *FeedbackUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	registered := make(map[domain.TransformMode]ports.TextTransformer, len(transformers))
	for mode, transformer := range transformers {
		if transformer != nil {
			registered[mode] = transformer
		}
	}
	return &FeedbackUseCase{
		analyzer:     analyzer,
		transformers: registered,
		observer:     observer,
	}
}

// Compare analyzes transformed independently of original. When before is
// nil the original is analyzed first; its failure fails the call, while a
// failed after-analysis is reported in the result.
func (uc *FeedbackUseCase) Compare(
	ctx context.Context,
	original, transformed *domain.Document,
	before *domain.Score,
	opts domain.AnalyzeOptions,
) (*domain.TransformationResult, error) {
	if original == nil || transformed == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compare", errors.New("original and transformed documents are required"))
	}

	result := &domain.TransformationResult{Source: original, Before: before}
	if before == nil {
		report, err := uc.analyzer.Analyze(ctx, original, opts)
		if err != nil {
			return nil, fmt.Errorf("analyze original: %w", err)
		}
		result.Before = report.Score
		result.BeforeSentences = report.Sentences
	}

	if err := uc.scoreAfter(ctx, result, transformed, opts); err != nil {
		return nil, err
	}
	uc.observer.ObserveTransformation("", result)
	return result, nil
}

// TransformAndCompare runs the transformer registered for req.Mode and
// compares its output with the original. Without an explicit focus the
// sentences not labelled natural are sent as focus.
func (uc *FeedbackUseCase) TransformAndCompare(
	ctx context.Context,
	original *domain.Document,
	req domain.TransformRequest,
	opts domain.AnalyzeOptions,
) (*domain.TransformationResult, error) {
	if original == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "transform", errors.New("document is required"))
	}
	mode, err := domain.ParseTransformMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	req.Mode = mode
	if req.Intensity, err = domain.ParseTransformIntensity(string(req.Intensity)); err != nil {
		return nil, err
	}
	transformer, ok := uc.transformers[mode]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "transform", fmt.Errorf("no transformer configured for mode %q", mode))
	}

	beforeReport, err := uc.analyzer.Analyze(ctx, original, opts)
	if err != nil {
		return nil, fmt.Errorf("analyze original: %w", err)
	}
	result := &domain.TransformationResult{
		Source:          original,
		Mode:            mode,
		Before:          beforeReport.Score,
		BeforeSentences: beforeReport.Sentences,
	}
	if len(req.Focus) == 0 {
		req.Focus = focusSentences(beforeReport.Sentences)
	}

	text, err := transformer.Transform(ctx, original, req)
	if err == nil {
		result.Transformed, err = domain.DeriveDocument(original, text, mode.Origin())
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("transform_failed", "mode", mode, "document_id", original.ID, "error", err)
		result.AfterStatus = domain.AfterTransformFailed
		result.AfterError = err.Error()
		uc.observer.ObserveTransformation(mode, result)
		return result, nil
	}

	if err := uc.scoreAfter(ctx, result, result.Transformed, opts); err != nil {
		return nil, err
	}
	uc.observer.ObserveTransformation(mode, result)
	return result, nil
}

func (uc *FeedbackUseCase) scoreAfter(
	ctx context.Context,
	result *domain.TransformationResult,
	transformed *domain.Document,
	opts domain.AnalyzeOptions,
) error {
	result.Transformed = transformed

	report, err := uc.analyzer.Analyze(ctx, transformed, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Warn("after_analysis_unavailable", "document_id", transformed.ID, "error", err)
		result.AfterStatus = domain.AfterUnavailable
		result.AfterError = err.Error()
		return nil
	}

	result.After = report.Score
	result.AfterSentences = report.Sentences
	result.AfterStatus = domain.AfterAvailable
	if result.Before != nil && result.After != nil {
		delta := math.Round((result.After.Value-result.Before.Value)*10) / 10
		result.Delta = &delta
	}
	return nil
}

func focusSentences(sentences []domain.SentenceDiagnostic) []string {
	var out []string
	for _, sentence := range sentences {
		if sentence.Category == domain.CategoryNatural || sentence.Score == nil {
			continue
		}
		text := strings.TrimSpace(sentence.Text)
		if text == "" {
			continue
		}
		out = append(out, text)
		if len(out) == maxAutoFocus {
			break
		}
	}
	return out
}
