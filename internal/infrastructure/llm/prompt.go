package llm

import (
	"fmt"
	"strings"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

const maxPromptText = 12000

var intensityInstructions = map[domain.TransformIntensity]string{
	domain.IntensityLight:    "Change as little as possible. Touch only the sentences that sound stiff or formulaic.",
	domain.IntensityStandard: "Rework sentences freely but keep every fact and the overall structure.",
	domain.IntensityStrong:   "Rewrite boldly. Reorder, merge, or split sentences as needed, but keep every fact.",
}

// BuildTransformPrompt renders the instruction sent to a generative model for
// the rewrite and paraphrase modes.
func BuildTransformPrompt(text string, req domain.TransformRequest) string {
	snippet := text
	if len(snippet) > maxPromptText {
		snippet = snippet[:maxPromptText]
	}
	intensity := req.Intensity
	if intensity == "" {
		intensity = domain.IntensityStandard
	}

	var task string
	switch req.Mode {
	case domain.ModeParaphrase:
		task = "Paraphrase the text below in different words with the same meaning."
	default:
		task = "Rewrite the text below so it reads like a person wrote it: vary sentence length, prefer concrete words, and drop stock transitions such as \"Furthermore\" or \"In conclusion\"."
	}

	var b strings.Builder
	b.WriteString(task)
	b.WriteString("\n")
	b.WriteString(intensityInstructions[intensity])
	b.WriteString("\nReturn only the resulting text. No preamble, no quotes, no markdown.\n")
	if len(req.Focus) > 0 {
		b.WriteString("\nPay special attention to these sentences:\n")
		for _, sentence := range req.Focus {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(sentence))
		}
	}
	b.WriteString("\nText:\n")
	b.WriteString(snippet)
	return b.String()
}

// CleanOutput drops code fences, a leading "Here is ..." line and
// wrapping quotes that chat models like to add.
func CleanOutput(raw string) string {
	out := strings.TrimSpace(raw)
	out = strings.TrimPrefix(out, "```text")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)

	if first, rest, ok := strings.Cut(out, "\n"); ok {
		lower := strings.ToLower(strings.TrimSpace(first))
		if strings.HasPrefix(lower, "here is") || strings.HasPrefix(lower, "here's") {
			out = strings.TrimSpace(rest)
		}
	}
	if len(out) >= 2 && strings.HasPrefix(out, `"`) && strings.HasSuffix(out, `"`) && strings.Count(out, `"`) == 2 {
		out = strings.TrimSpace(out[1 : len(out)-1])
	}
	return out
}
