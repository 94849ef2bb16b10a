package signals

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

var wordFinder = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// words returns the lowercased word tokens of text.
func words(text string) []string {
	found := wordFinder.FindAllString(text, -1)
	for i, w := range found {
		found[i] = strings.ToLower(w)
	}
	return found
}

func sentenceWords(in ports.ExtractionInput) [][]string {
	out := make([][]string, len(in.Spans))
	for i := range in.Spans {
		out[i] = words(in.SentenceText(i))
	}
	return out
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the and or but if then else of to in on at by for with from into onto
	over under as is are was were be been being am do does did have has had i you he she it we they me him her
	us them my your his its our their this that these those there here not no so than too very can could will
	would shall should may might must just also about up down out off again once all any both each few more most
	other some such only own same what which who whom whose when where why how`) {
		stopwords[w] = struct{}{}
	}
}

func contentWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, w := range tokens {
		if _, ok := stopwords[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (mean, sd float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) == 1 {
		return mean, 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// mattr is the moving-average type-token ratio over windows of n words that
// step by n/2. Inputs no longer than one window fall back to plain TTR.
func mattr(tokens []string, n int) float64 {
	if len(tokens) == 0 {
		return 0
	}
	if n <= 1 || len(tokens) <= n {
		return typeTokenRatio(tokens)
	}
	// Slide one token at a time, keeping counts for the current window.
	counts := make(map[string]int, n)
	types := 0
	for _, tok := range tokens[:n] {
		if counts[tok] == 0 {
			types++
		}
		counts[tok]++
	}
	sum := float64(types) / float64(n)
	windows := 1
	for i := n; i < len(tokens); i++ {
		out := tokens[i-n]
		counts[out]--
		if counts[out] == 0 {
			types--
		}
		if counts[tokens[i]] == 0 {
			types++
		}
		counts[tokens[i]]++
		sum += float64(types) / float64(n)
		windows++
	}
	return sum / float64(windows)
}

func typeTokenRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, w := range tokens {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(tokens))
}

// syllables estimates English syllables by counting vowel groups.
func syllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	runes := []rune(word)
	for _, r := range runes {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	n := len(runes)
	if n > 2 && runes[n-1] == 'e' && !strings.ContainsRune("aeiouyl", runes[n-2]) && count > 1 {
		count--
	}
	if count == 0 && n > 0 && (unicode.IsLetter(runes[0]) || unicode.IsDigit(runes[0])) {
		count = 1
	}
	return count
}

// fleschKincaidGrade scores a single sentence.
func fleschKincaidGrade(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	total := 0
	for _, w := range tokens {
		total += syllables(w)
	}
	return 0.39*float64(len(tokens)) + 11.8*(float64(total)/float64(len(tokens))) - 15.59
}
