package segmentation

import (
	"strings"
	"testing"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func segmentTexts(t *testing.T, text string) []string {
	t.Helper()
	spans, err := NewSegmenter().Segment(text)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	out := make([]string, 0, len(spans))
	prevEnd := 0
	for i, span := range spans {
		if span.Index != i {
			t.Fatalf("span %d has index %d", i, span.Index)
		}
		if span.Start < prevEnd || span.End <= span.Start {
			t.Fatalf("span %d [%d,%d) overlaps or is empty", i, span.Start, span.End)
		}
		got := text[span.Start:span.End]
		if got != strings.TrimSpace(got) {
			t.Fatalf("span %d is not trimmed: %q", i, got)
		}
		prevEnd = span.End
		out = append(out, got)
	}
	return out
}

func assertSentences(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSegmentAbbreviationsAndDecimals(t *testing.T) {
	got := segmentTexts(t, "Dr. Smith arrived at 3.14 p.m. today. He left!  Did he?")
	assertSentences(t, got, "Dr. Smith arrived at 3.14 p.m. today.", "He left!", "Did he?")
}

func TestSegmentInitialsAndCountries(t *testing.T) {
	got := segmentTexts(t, "J. K. Rowling moved to the U.S. Army base. Nobody noticed.")
	assertSentences(t, got, "J. K. Rowling moved to the U.S. Army base.", "Nobody noticed.")
}

func TestSegmentSentenceEndingInNoOrI(t *testing.T) {
	got := segmentTexts(t, "The answer was no. We left early.")
	assertSentences(t, got, "The answer was no.", "We left early.")

	got = segmentTexts(t, "My brother came, and so did I. Nobody else showed up.")
	assertSentences(t, got, "My brother came, and so did I.", "Nobody else showed up.")

	got = segmentTexts(t, "See No. 5 on the list. It is short.")
	assertSentences(t, got, "See No. 5 on the list.", "It is short.")
}

func TestSegmentQuotedDialogue(t *testing.T) {
	got := segmentTexts(t, `"Stop," she said. "Now!" He ran. "Wait!" she yelled.`)
	assertSentences(t, got, `"Stop," she said.`, `"Now!"`, `He ran.`, `"Wait!" she yelled.`)
}

func TestSegmentHardBoundaries(t *testing.T) {
	text := "Intro line without a period\n\n- first item\n- second item\n1. third item\nstill third\n\nClosing words."
	got := segmentTexts(t, text)
	assertSentences(t, got,
		"Intro line without a period",
		"- first item",
		"- second item",
		"1. third item\nstill third",
		"Closing words.",
	)
}

func TestSegmentMergesPunctuationOnlyFragments(t *testing.T) {
	got := segmentTexts(t, "Really?\n\n!!!\n\nYes.")
	assertSentences(t, got, "Really?\n\n!!!", "Yes.")

	got = segmentTexts(t, "...\n\nStarting late.")
	assertSentences(t, got, "...\n\nStarting late.")
}

func TestSegmentEllipsisAndRuns(t *testing.T) {
	got := segmentTexts(t, "Wait… and then nothing. Really?! Yes.")
	assertSentences(t, got, "Wait… and then nothing.", "Really?!", "Yes.")
}

func TestSegmentRejectsTextWithoutContent(t *testing.T) {
	for _, text := range []string{"", "   \n\n\t", "... !!! ???"} {
		if _, err := NewSegmenter().Segment(text); !domain.IsKind(err, domain.ErrSegmentation) {
			t.Fatalf("Segment(%q) error = %v, want segmentation error", text, err)
		}
	}
}

func TestSegmentIsDeterministic(t *testing.T) {
	text := "One. Two? Three!\n\nFour… five. Six."
	first, _ := NewSegmenter().Segment(text)
	second, _ := NewSegmenter().Segment(text)
	if len(first) != len(second) {
		t.Fatalf("span counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("span %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
