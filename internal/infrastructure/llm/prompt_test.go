package llm

import (
	"strings"
	"testing"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func TestParaphrasePromptDefaultsToStandardIntensity(t *testing.T) {
	prompt := BuildTransformPrompt("Some text.", domain.TransformRequest{Mode: domain.ModeParaphrase})
	if !strings.HasPrefix(prompt, "Paraphrase") || !strings.Contains(prompt, "keep every fact and the overall structure") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
	if !strings.HasSuffix(prompt, "Text:\nSome text.") {
		t.Fatalf("expected text at the end, got %s", prompt)
	}
}

func TestRewritePromptListsFocusSentences(t *testing.T) {
	prompt := BuildTransformPrompt("A. B.", domain.TransformRequest{
		Mode:      domain.ModeRewrite,
		Intensity: domain.IntensityStrong,
		Focus:     []string{" A. "},
	})
	if !strings.Contains(prompt, "Rewrite boldly") || !strings.Contains(prompt, "- A.\n") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
}

func TestCleanOutputStripsWrappers(t *testing.T) {
	cases := map[string]string{
		"```text\nPlain words.\n```":           "Plain words.",
		"Here's a version:\nShort. Then long.": "Short. Then long.",
		`"Quoted answer."`:                     "Quoted answer.",
		`He said "hi" and left.`:               `He said "hi" and left.`,
	}
	for in, want := range cases {
		if got := CleanOutput(in); got != want {
			t.Fatalf("CleanOutput(%q) = %q, want %q", in, got, want)
		}
	}
}
