package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func newHistory(t *testing.T) *ReportHistory {
	t.Helper()
	h, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func report(t *testing.T, text string, score float64) *domain.Report {
	t.Helper()
	doc, err := domain.NewDocument(text, "en")
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	return &domain.Report{
		Document:  doc,
		Score:     &domain.Score{Value: score, Confidence: domain.Confidence{Level: domain.ConfidenceReduced, Coverage: 0.6}},
		Sentences: make([]domain.SentenceDiagnostic, 2),
		Profile:   "default",
	}
}

func TestSaveAndListNewestFirst(t *testing.T) {
	h := newHistory(t)
	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	calls := 0
	h.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	first, err := h.Save(context.Background(), report(t, "First text.", 40))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := h.Save(context.Background(), report(t, "Second text.", 80))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	list, err := h.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].Score != 80 || list[0].Confidence != domain.ConfidenceReduced || list[0].Sentences != 2 {
		t.Fatalf("unexpected summary: %+v", list[0])
	}
	if !list[0].CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", list[0].CreatedAt, second.CreatedAt)
	}

	limited, _ := h.List(context.Background(), 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestGetReturnsStoredReport(t *testing.T) {
	h := newHistory(t)
	summary, err := h.Save(context.Background(), report(t, "Stored text.", 55))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := h.Get(context.Background(), summary.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Document.Text != "Stored text." || got.Score.Value != 55 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if _, err := h.Get(context.Background(), "missing"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown id, got %v", err)
	}
}

func TestSaveRejectsReportWithoutScore(t *testing.T) {
	h := newHistory(t)
	if _, err := h.Save(context.Background(), &domain.Report{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPreviewCollapsesWhitespaceAndTruncates(t *testing.T) {
	if got := preview("a\n\n  b"); got != "a b" {
		t.Fatalf("preview() = %q", got)
	}
	got := preview(strings.Repeat("word ", 40))
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != previewRunes {
		t.Fatalf("unexpected preview %q", got)
	}
}
