package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

func mustDocument(t *testing.T, text string) *domain.Document {
	t.Helper()
	doc, err := domain.NewDocument(text, "en")
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	return doc
}

func TestAnalyzeScoresDocumentFromDocumentGrainSignals(t *testing.T) {
	observer := newRecordingObserver()
	uc := NewAnalyzeUseCase(
		periodSegmenter{},
		[]ports.SignalExtractor{
			fixedExtractor{signal: domain.SignalPerplexity, document: 0.8, sentence: lengthScored},
			fixedExtractor{signal: domain.SignalBurstiness, document: 0.5},
		},
		defaultProfiles(),
		observer,
		time.Second,
	)

	doc := mustDocument(t, "One two three. Four five six seven eight. Nine ten.")
	report, err := uc.Analyze(context.Background(), doc, domain.AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// (0.30*0.8 + 0.20*0.5) / 0.50
	if math.Abs(report.Score.Value-68) > 1e-9 {
		t.Fatalf("expected document score 68, got %v", report.Score.Value)
	}
	if report.Score.Signals[domain.SignalPerplexity].Value != 0.8 {
		t.Fatalf("document perplexity must come from the document grain, got %+v", report.Score.Signals[domain.SignalPerplexity])
	}
	if !report.Score.Degraded || report.Score.Confidence.Level != domain.ConfidenceReduced {
		t.Fatalf("expected degraded reduced-confidence score, got %+v", report.Score.Confidence)
	}
	if len(report.Sentences) != 3 || len(report.Spans) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(report.Sentences))
	}
	if got := report.Sentences[1].Signals[domain.SignalPerplexity].Value; got != 0.5 {
		t.Fatalf("expected joined sentence value 0.5, got %v", got)
	}
	if report.Profile != "default" {
		t.Fatalf("expected default profile, got %q", report.Profile)
	}
	if len(report.SignalIssues) != 0 {
		t.Fatalf("disabled signals are not issues, got %+v", report.SignalIssues)
	}
	if observer.scores != 1 || !observer.extractions[domain.SignalPerplexity].Available {
		t.Fatalf("unexpected observations: %+v", observer)
	}
	for i, sentence := range report.Sentences {
		if err := sentence.Signals.Validate(); err != nil {
			t.Fatalf("sentence %d vector invalid: %v", i, err)
		}
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	uc := NewAnalyzeUseCase(
		periodSegmenter{},
		[]ports.SignalExtractor{
			fixedExtractor{signal: domain.SignalPerplexity, document: 0.42, sentence: lengthScored},
			fixedExtractor{signal: domain.SignalLexicalDiversity, document: 0.77, sentence: lengthScored},
		},
		defaultProfiles(),
		nil,
		time.Second,
	)
	doc := mustDocument(t, "Short one. A slightly longer sentence here. End.")

	first, err := uc.Analyze(context.Background(), doc, domain.AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	second, err := uc.Analyze(context.Background(), doc, domain.AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if first.Score.Value != second.Score.Value {
		t.Fatalf("scores differ: %v vs %v", first.Score.Value, second.Score.Value)
	}
	for i := range first.Sentences {
		if first.Sentences[i].Category != second.Sentences[i].Category || first.Sentences[i].Rationale != second.Sentences[i].Rationale {
			t.Fatalf("sentence %d differs between runs", i)
		}
	}
}

func TestAnalyzeAllExtractorsTimeOut(t *testing.T) {
	for _, policy := range []domain.MissingSignalPolicy{domain.PolicyFail, domain.PolicyRenormalize} {
		uc := NewAnalyzeUseCase(
			periodSegmenter{},
			[]ports.SignalExtractor{
				slowExtractor{signal: domain.SignalPerplexity},
				slowExtractor{signal: domain.SignalAIProbability},
			},
			defaultProfiles(),
			nil,
			20*time.Millisecond,
		)
		weighting := domain.WeightingConfig{
			Weights: map[domain.SignalName]float64{
				domain.SignalPerplexity:    0.5,
				domain.SignalAIProbability: 0.5,
			},
			MissingSignalPolicy: policy,
		}

		start := time.Now()
		_, err := uc.Analyze(context.Background(), mustDocument(t, "One. Two."), domain.AnalyzeOptions{Weighting: &weighting})
		if !domain.IsKind(err, domain.ErrInsufficientSignal) {
			t.Fatalf("%s: expected insufficient signal, got %v", policy, err)
		}
		if time.Since(start) > 2*time.Second {
			t.Fatalf("%s: timeout was not enforced", policy)
		}
		var detail *domain.InsufficientSignalError
		if !errors.As(err, &detail) || len(detail.Missing) != 2 {
			t.Fatalf("%s: expected both signals missing, got %v", policy, err)
		}
	}
}

func TestAnalyzeKeepsFastSignalsWhenOneTimesOut(t *testing.T) {
	uc := NewAnalyzeUseCase(
		periodSegmenter{},
		[]ports.SignalExtractor{
			slowExtractor{signal: domain.SignalPerplexity},
			fixedExtractor{signal: domain.SignalBurstiness, document: 0.5},
		},
		defaultProfiles(),
		nil,
		20*time.Millisecond,
	)

	report, err := uc.Analyze(context.Background(), mustDocument(t, "One. Two."), domain.AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	score := report.Score
	if score == nil {
		t.Fatalf("expected a document score")
	}
	if got := score.Signals[domain.SignalPerplexity]; got.Available || got.Reason != domain.ReasonTimeout {
		t.Fatalf("expected perplexity timeout, got %+v", got)
	}
	if got := score.Signals[domain.SignalBurstiness]; !got.Available || got.Value != 0.5 {
		t.Fatalf("expected burstiness kept at 0.5, got %+v", got)
	}
	if score.Value != 50 || !score.Degraded {
		t.Fatalf("expected degraded score 50, got %v (degraded=%v)", score.Value, score.Degraded)
	}
	if score.Confidence.Level == domain.ConfidenceFull {
		t.Fatalf("expected reduced confidence, got %+v", score.Confidence)
	}
}

func TestAnalyzeReturnsContextErrorWhenCanceled(t *testing.T) {
	uc := NewAnalyzeUseCase(
		periodSegmenter{},
		[]ports.SignalExtractor{slowExtractor{signal: domain.SignalPerplexity}},
		defaultProfiles(),
		nil,
		time.Second,
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Analyze(ctx, mustDocument(t, "One. Two."), domain.AnalyzeOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestAnalyzePropagatesSegmentationAndWeightingErrors(t *testing.T) {
	failing := NewAnalyzeUseCase(
		periodSegmenter{err: domain.WrapError(domain.ErrSegmentation, "segment", errors.New("no sentences"))},
		nil,
		defaultProfiles(),
		nil,
		time.Second,
	)
	if _, err := failing.Analyze(context.Background(), mustDocument(t, "text"), domain.AnalyzeOptions{}); !domain.IsKind(err, domain.ErrSegmentation) {
		t.Fatalf("expected segmentation error, got %v", err)
	}

	uc := NewAnalyzeUseCase(periodSegmenter{}, nil, defaultProfiles(), nil, time.Second)
	bad := domain.WeightingConfig{Weights: map[domain.SignalName]float64{"vibes": 1}, MissingSignalPolicy: domain.PolicyZero}
	if _, err := uc.Analyze(context.Background(), mustDocument(t, "text."), domain.AnalyzeOptions{Weighting: &bad}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.Analyze(context.Background(), nil, domain.AnalyzeOptions{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil document, got %v", err)
	}
}

func TestAnalyzeReportsSignalIssuesAndUnsupportedGrain(t *testing.T) {
	uc := NewAnalyzeUseCase(
		periodSegmenter{},
		[]ports.SignalExtractor{
			fixedExtractor{signal: domain.SignalPerplexity, document: 0.6, wrongLength: true},
			documentOnlyExtractor{signal: domain.SignalAIProbability, value: 0.7},
			fixedExtractor{signal: domain.SignalBurstiness, document: 0.4},
		},
		defaultProfiles(),
		nil,
		time.Second,
	)

	report, err := uc.Analyze(context.Background(), mustDocument(t, "One. Two. Three."), domain.AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(report.SignalIssues) != 1 {
		t.Fatalf("expected one issue, got %+v", report.SignalIssues)
	}
	issue := report.SignalIssues[0]
	if issue.Signal != domain.SignalPerplexity || issue.Grain != domain.GrainSentence ||
		issue.Reason != domain.ReasonMalformedResponse || issue.Count != 3 {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if got := report.Sentences[0].Signals[domain.SignalAIProbability].Reason; got != domain.ReasonUnsupportedGrain {
		t.Fatalf("expected unsupported grain for document-only extractor, got %q", got)
	}
}

func TestAnalyzeFailPolicyIgnoresUnsupportedGrain(t *testing.T) {
	uc := NewAnalyzeUseCase(
		periodSegmenter{},
		[]ports.SignalExtractor{
			fixedExtractor{signal: domain.SignalPerplexity, document: 0.6, sentence: lengthScored},
			documentOnlyExtractor{signal: domain.SignalAIProbability, value: 0.7},
		},
		defaultProfiles(),
		nil,
		time.Second,
	)
	weighting := domain.WeightingConfig{
		Weights: map[domain.SignalName]float64{
			domain.SignalPerplexity:    0.5,
			domain.SignalAIProbability: 0.5,
		},
		MissingSignalPolicy: domain.PolicyFail,
	}

	report, err := uc.Analyze(context.Background(), mustDocument(t, "One two. Three four five."), domain.AnalyzeOptions{Weighting: &weighting})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Score.Degraded {
		t.Fatalf("document score must use both signals")
	}
	for i, sentence := range report.Sentences {
		if sentence.Score == nil {
			t.Fatalf("sentence %d must be scored from perplexity alone", i)
		}
	}
}
