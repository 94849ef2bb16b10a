package languagetool

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/httpjson"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/resilience"
)

// Transformer applies LanguageTool suggestions to produce a corrected text.
// Light intensity only fixes spelling; standard and strong apply every
// suggestion that carries a replacement.
type Transformer struct {
	http     *httpjson.Client
	language string
	executor *resilience.Executor
}

func New(baseURL, language string, timeout time.Duration, executor *resilience.Executor) *Transformer {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if strings.TrimSpace(language) == "" {
		language = "en-US"
	}
	return &Transformer{
		http:     httpjson.New("languagetool", baseURL, timeout),
		language: language,
		executor: executor,
	}
}

type checkResponse struct {
	Matches []match `json:"matches"`
}

type match struct {
	Message      string `json:"message"`
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Rule struct {
		ID        string `json:"id"`
		IssueType string `json:"issueType"`
		Category  struct {
			ID string `json:"id"`
		} `json:"category"`
	} `json:"rule"`
}

func (t *Transformer) Transform(ctx context.Context, doc *domain.Document, req domain.TransformRequest) (string, error) {
	if doc == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "languagetool transform", errors.New("document is nil"))
	}
	if req.Mode != domain.ModeGrammar {
		return "", domain.WrapError(domain.ErrInvalidInput, "languagetool transform", errors.New("unsupported mode "+string(req.Mode)))
	}

	var response checkResponse
	call := func(ctx context.Context) error {
		form := url.Values{"language": {t.language}, "text": {doc.Text}}
		return t.http.PostForm(ctx, "/v2/check", form, &response, "check")
	}
	var err error
	if t.executor != nil {
		err = t.executor.Execute(ctx, "languagetool.check", call, httpjson.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapExternal("languagetool", "check", err, httpjson.Classify)
	}
	return applyMatches(doc.Text, response.Matches, req.Intensity), nil
}

// applyMatches replaces matched ranges with their first suggestion. Offsets
// from LanguageTool count UTF-16 code units.
func applyMatches(text string, matches []match, intensity domain.TransformIntensity) string {
	units := utf16.Encode([]rune(text))
	selected := make([]match, 0, len(matches))
	for _, m := range matches {
		if len(m.Replacements) == 0 || m.Offset < 0 || m.Length <= 0 || m.Offset+m.Length > len(units) {
			continue
		}
		if intensity == domain.IntensityLight && !isSpelling(m) {
			continue
		}
		selected = append(selected, m)
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Offset < selected[j].Offset })

	var b strings.Builder
	cursor := 0
	for _, m := range selected {
		if m.Offset < cursor {
			continue
		}
		b.WriteString(string(utf16.Decode(units[cursor:m.Offset])))
		b.WriteString(m.Replacements[0].Value)
		cursor = m.Offset + m.Length
	}
	b.WriteString(string(utf16.Decode(units[cursor:])))
	return b.String()
}

func isSpelling(m match) bool {
	return m.Rule.IssueType == "misspelling" || m.Rule.Category.ID == "TYPOS"
}
