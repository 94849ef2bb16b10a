package domain

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const DefaultLanguage = "en"

type DocumentOrigin string

const (
	OriginSubmitted  DocumentOrigin = "submitted"
	OriginRewrite    DocumentOrigin = "rewrite"
	OriginGrammar    DocumentOrigin = "grammar"
	OriginParaphrase DocumentOrigin = "paraphrase"
)

// Document is an immutable unit of text under evaluation. A transformation
// never edits a Document; it produces a new one whose ParentID points back.
type Document struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Language  string         `json:"language"`
	Length    int            `json:"length"`
	WordCount int            `json:"word_count"`
	Origin    DocumentOrigin `json:"origin"`
	ParentID  string         `json:"parent_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewDocument builds a submitted Document. Empty text is rejected here so that
// every Document reaching the pipeline has something to segment.
func NewDocument(text, language string) (*Document, error) {
	return newDocument(text, language, OriginSubmitted, "")
}

// DeriveDocument builds the Document produced by transforming parent.
func DeriveDocument(parent *Document, text string, origin DocumentOrigin) (*Document, error) {
	if parent == nil {
		return nil, WrapError(ErrInvalidInput, "derive document", errors.New("parent document is nil"))
	}
	return newDocument(text, parent.Language, origin, parent.ID)
}

func newDocument(text, language string, origin DocumentOrigin, parentID string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(ErrInvalidInput, "new document", errors.New("text is empty"))
	}
	if !utf8.ValidString(text) {
		return nil, WrapError(ErrInvalidInput, "new document", errors.New("text is not valid utf-8"))
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = DefaultLanguage
	}
	return &Document{
		ID:        uuid.NewString(),
		Text:      text,
		Language:  language,
		Length:    utf8.RuneCountInString(text),
		WordCount: countWords(text),
		Origin:    origin,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SentenceSpan addresses one sentence by half-open byte offsets into Document.Text.
type SentenceSpan struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s SentenceSpan) Len() int {
	return s.End - s.Start
}

// SpanText returns the sentence text, or "" when the span does not fit the document.
func (d *Document) SpanText(span SentenceSpan) string {
	if d == nil || span.Start < 0 || span.End > len(d.Text) || span.Start >= span.End {
		return ""
	}
	return d.Text[span.Start:span.End]
}

func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !inWord {
				count++
				inWord = true
			}
			continue
		}
		if r == '\'' || r == '’' {
			continue
		}
		inWord = false
	}
	return count
}
