package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// Extractor pulls the plain text layer out of PDF uploads. Scanned PDFs
// without a text layer are rejected.
type Extractor struct {
	maxBytes int64
}

func NewExtractor(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Extract(ctx context.Context, filename string, body io.Reader) (string, error) {
	var src io.Reader = body
	if e.maxBytes > 0 {
		src = io.LimitReader(body, e.maxBytes+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("read %s: %w", filename, err))
	}
	if e.maxBytes > 0 && int64(len(raw)) > e.maxBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s exceeds upload limit", filename))
	}

	text, err := plainText(ctx, raw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s: %w", filename, err))
	}
	return text, nil
}

func plainText(ctx context.Context, raw []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("no extractable text found in pdf")
	}
	return out, nil
}
