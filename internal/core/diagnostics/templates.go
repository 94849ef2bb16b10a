package diagnostics

import (
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

var categoryLabels = map[domain.Category]string{
	domain.CategoryNatural:        "Natural",
	domain.CategoryPredictable:    "Predictable",
	domain.CategoryGeneric:        "Generic",
	domain.CategoryOverlyPolished: "Overly polished",
}

// signalPhrases holds the human-side and machine-side reading of each signal.
var signalPhrases = map[domain.SignalName][2]string{
	domain.SignalPerplexity: {
		"word choices are hard to predict",
		"word choices are highly predictable",
	},
	domain.SignalAIProbability: {
		"the classifier sees little machine-style patterning",
		"the classifier flags machine-style patterning",
	},
	domain.SignalBurstiness: {
		"its length breaks the surrounding rhythm",
		"its length matches the surrounding rhythm",
	},
	domain.SignalLexicalDiversity: {
		"its vocabulary is fresh for this document",
		"it reuses vocabulary found elsewhere in the document",
	},
	domain.SignalReadabilityVariation: {
		"its complexity stands out from its neighbours",
		"its complexity sits at the document average",
	},
}

var suggestions = map[domain.Category]string{
	domain.CategoryNatural:        "No change needed; this sentence already reads naturally.",
	domain.CategoryPredictable:    "Add a concrete detail or an unexpected word choice so the sentence is harder to anticipate.",
	domain.CategoryGeneric:        "Swap repeated or generic words for specific ones drawn from your own experience.",
	domain.CategoryOverlyPolished: "Vary the rhythm: split this sentence, merge it with a neighbour, or change its length.",
}

func suggestionFor(category domain.Category) string {
	return suggestions[category]
}

func rationale(
	v verdict,
	vector domain.SignalVector,
	percentiles map[domain.SignalName]float64,
	stats map[domain.SignalName]signalStats,
) string {
	if v.insufficient {
		return "Unrated: no weighted signal was available for this sentence, so nothing counts against it."
	}
	label := categoryLabels[v.category]
	if len(v.dominant) == 0 {
		return label + ": not enough signal was available to judge this sentence."
	}

	side := 1
	if v.category == domain.CategoryNatural {
		side = 0
	}

	primary := v.dominant[0]
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s %.2f, %s percentile; document mean %.2f).",
		label,
		signalPhrases[primary][side],
		primary,
		vector.Get(primary).Value,
		ordinal(percentiles[primary]),
		stats[primary].mean,
	)
	for _, name := range v.dominant[1:] {
		fmt.Fprintf(&b, " Also, %s (%s %.2f).", signalPhrases[name][side], name, vector.Get(name).Value)
	}
	return b.String()
}

func ordinal(fraction float64) string {
	n := int(math.Round(fraction * 100))
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
