package segmentation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,3}[.)]|[A-Za-z][)])\s+`)

var defaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "st", "jr", "sr", "vs", "etc",
	"e.g", "i.e", "inc", "ltd", "co", "fig", "approx", "u.s", "u.k",
}

// numberedAbbreviations only abbreviate when a number follows, as in "No. 5".
var numberedAbbreviations = map[string]struct{}{"no": {}, "nos": {}, "vol": {}, "pp": {}}

const (
	terminators = ".!?…"
	closers     = "\"'”’)]»"
)

// Segmenter splits text into sentence spans with a rule-based splitter.
// Spans are byte offsets into the original text, trimmed of surrounding
// whitespace and never overlapping.
type Segmenter struct {
	abbreviations map[string]struct{}
}

func NewSegmenter() *Segmenter {
	abbr := make(map[string]struct{}, len(defaultAbbreviations))
	for _, a := range defaultAbbreviations {
		abbr[a] = struct{}{}
	}
	return &Segmenter{abbreviations: abbr}
}

func (s *Segmenter) Segment(text string) ([]domain.SentenceSpan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrSegmentation, "segment", errors.New("text is empty"))
	}
	if !hasAlphanumeric(text) {
		return nil, domain.WrapError(domain.ErrSegmentation, "segment", errors.New("text has no letters or digits"))
	}

	var ranges [][2]int
	for _, block := range blocks(text) {
		ranges = append(ranges, s.sentences(text, block[0], block[1])...)
	}
	ranges = mergePunctuationOnly(text, ranges)
	if len(ranges) == 0 {
		return nil, domain.WrapError(domain.ErrSegmentation, "segment", errors.New("no sentences found"))
	}

	spans := make([]domain.SentenceSpan, 0, len(ranges))
	for i, r := range ranges {
		spans = append(spans, domain.SentenceSpan{Index: i, Start: r[0], End: r[1]})
	}
	return spans, nil
}

// blocks cuts text at hard boundaries: blank lines and list item lines.
func blocks(text string) [][2]int {
	var out [][2]int
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, [2]int{start, end})
		}
		start = -1
	}

	offset := 0
	for offset < len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		next := len(text)
		if lineEnd >= 0 {
			next = offset + lineEnd + 1
			lineEnd = offset + lineEnd
		} else {
			lineEnd = len(text)
		}
		line := text[offset:lineEnd]

		switch {
		case strings.TrimSpace(line) == "":
			flush(offset)
		case listMarker.MatchString(line):
			flush(offset)
			start = offset
		case start < 0:
			start = offset
		}
		offset = next
	}
	flush(len(text))
	return out
}

// sentences applies soft boundaries inside one block.
func (s *Segmenter) sentences(text string, start, end int) [][2]int {
	var out [][2]int
	emit := func(from, to int) {
		if r, ok := trim(text, from, to); ok {
			out = append(out, r)
		}
	}

	from := start
	i := start
	for i < end {
		r, size := utf8.DecodeRuneInString(text[i:end])
		if !strings.ContainsRune(terminators, r) {
			i += size
			continue
		}

		runStart := i
		runLen := 0
		for i < end {
			r, size = utf8.DecodeRuneInString(text[i:end])
			if !strings.ContainsRune(terminators, r) {
				break
			}
			i += size
			runLen++
		}
		for i < end {
			r, size = utf8.DecodeRuneInString(text[i:end])
			if !strings.ContainsRune(closers, r) {
				break
			}
			i += size
		}
		boundary := i
		if boundary < end {
			r, _ = utf8.DecodeRuneInString(text[boundary:end])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		if boundary < end && startsLowercase(text[boundary:end]) {
			continue
		}
		if runLen == 1 && text[runStart] == '.' && s.isAbbreviation(text[start:runStart], text[boundary:end]) {
			continue
		}
		emit(from, boundary)
		from = boundary
	}
	emit(from, end)
	return out
}

// isAbbreviation reports whether the period ending before belongs to an
// abbreviation rather than closing a sentence. after is the text that follows.
func (s *Segmenter) isAbbreviation(before, after string) bool {
	j := len(before)
	for j > 0 {
		r, size := utf8.DecodeLastRuneInString(before[:j])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		j -= size
	}
	token := strings.Trim(before[j:], ".")
	if token == "" {
		return false
	}
	next, _ := utf8.DecodeRuneInString(strings.TrimLeftFunc(after, unicode.IsSpace))
	if utf8.RuneCountInString(token) == 1 {
		// An initial is followed by a name or another initial. "I" is a word.
		r, _ := utf8.DecodeRuneInString(token)
		return unicode.IsUpper(r) && token != "I" && unicode.IsUpper(next)
	}
	lower := strings.ToLower(token)
	if _, ok := numberedAbbreviations[lower]; ok {
		return unicode.IsDigit(next)
	}
	_, ok := s.abbreviations[lower]
	return ok
}

func startsLowercase(rest string) bool {
	for _, r := range rest {
		if unicode.IsSpace(r) || strings.ContainsRune(closers, r) || r == '"' || r == '“' || r == '(' {
			continue
		}
		return unicode.IsLower(r)
	}
	return false
}

func trim(text string, from, to int) ([2]int, bool) {
	for from < to {
		r, size := utf8.DecodeRuneInString(text[from:to])
		if !unicode.IsSpace(r) {
			break
		}
		from += size
	}
	for to > from {
		r, size := utf8.DecodeLastRuneInString(text[from:to])
		if !unicode.IsSpace(r) {
			break
		}
		to -= size
	}
	return [2]int{from, to}, to > from
}

// mergePunctuationOnly folds fragments without letters or digits into the
// previous span, or the next one when nothing precedes them.
func mergePunctuationOnly(text string, ranges [][2]int) [][2]int {
	out := make([][2]int, 0, len(ranges))
	pending := -1
	for _, r := range ranges {
		if !hasAlphanumeric(text[r[0]:r[1]]) {
			if len(out) > 0 {
				out[len(out)-1][1] = r[1]
			} else if pending < 0 {
				pending = r[0]
			}
			continue
		}
		if pending >= 0 {
			r[0] = pending
			pending = -1
		}
		out = append(out, r)
	}
	return out
}

func hasAlphanumeric(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
