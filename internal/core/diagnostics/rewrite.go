package diagnostics

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// boilerplateOpeners are stock transitions that mark text as templated.
var boilerplateOpeners = []string{
	"in conclusion",
	"it is imperative",
	"furthermore",
	"moreover",
	"additionally",
	"thus",
	"hence",
	"in today's world",
	"it is important to note",
}

var (
	openerPattern = regexp.MustCompile(`(?i)^\s*(` + openerAlternation() + `)\b[,:]?\s*(that\s+)?`)
	wordPattern   = regexp.MustCompile(`[\p{L}][\p{L}'’]*`)
)

func openerAlternation() string {
	quoted := make([]string, 0, len(boilerplateOpeners))
	for _, opener := range boilerplateOpeners {
		quoted = append(quoted, regexp.QuoteMeta(opener))
	}
	return strings.Join(quoted, "|")
}

const maxRepeatedHints = 3

func rewriteIdeas(category domain.Category, text string, repeated map[string]int) []domain.RewriteIdea {
	var ideas []domain.RewriteIdea
	if stripped, ok := stripOpener(text); ok {
		ideas = append(ideas, domain.RewriteIdea{
			Kind:    "remove_opener",
			Hint:    "Drop the formal transition and start with the point itself.",
			Example: stripped,
		})
	}

	switch category {
	case domain.CategoryPredictable:
		ideas = append(ideas,
			domain.RewriteIdea{Kind: "add_detail", Hint: "Add a concrete detail such as a number, a name, or something you observed."},
			domain.RewriteIdea{Kind: "make_personal", Hint: "Say what you saw, did, or think instead of stating a general truth."},
		)
	case domain.CategoryOverlyPolished:
		ideas = append(ideas,
			domain.RewriteIdea{Kind: "vary_structure", Hint: "Break it into a short punchy sentence followed by a longer one."},
			domain.RewriteIdea{Kind: "add_surprise", Hint: "Add an aside, a question, or an unexpected comparison."},
		)
	case domain.CategoryGeneric:
		if words := repeatedIn(text, repeated); len(words) > 0 {
			ideas = append(ideas, domain.RewriteIdea{
				Kind: "replace_repeated",
				Hint: "Replace words used repeatedly in this document: " + strings.Join(words, ", ") + ".",
			})
		} else {
			ideas = append(ideas, domain.RewriteIdea{Kind: "be_specific", Hint: "Replace broad words with specific ones."})
		}
	}
	return ideas
}

// stripOpener removes a leading boilerplate transition and re-capitalizes.
func stripOpener(text string) (string, bool) {
	loc := openerPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := strings.TrimSpace(text[loc[1]:])
	if rest == "" {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(rest)
	return string(unicode.ToUpper(r)) + rest[size:], true
}

// repeatedWords counts content words used at least twice across the document.
func repeatedWords(doc *domain.Document) map[string]int {
	counts := make(map[string]int)
	if doc == nil {
		return counts
	}
	for _, w := range wordPattern.FindAllString(doc.Text, -1) {
		w = strings.ToLower(w)
		if utf8.RuneCountInString(w) < 4 {
			continue
		}
		counts[w]++
	}
	for w, n := range counts {
		if n < 2 {
			delete(counts, w)
		}
	}
	return counts
}

func repeatedIn(text string, repeated map[string]int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range wordPattern.FindAllString(text, -1) {
		w = strings.ToLower(w)
		if _, ok := repeated[w]; !ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if repeated[out[i]] != repeated[out[j]] {
			return repeated[out[i]] > repeated[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > maxRepeatedHints {
		out = out[:maxRepeatedHints]
	}
	return out
}
