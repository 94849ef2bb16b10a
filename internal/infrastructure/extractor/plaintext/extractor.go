package plaintext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// Extractor reads UTF-8 text uploads (.txt, .md and similar).
type Extractor struct {
	maxBytes int64
}

func NewExtractor(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Extract(ctx context.Context, filename string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := readLimited(body, e.maxBytes)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract plain text", fmt.Errorf("read %s: %w", filename, err))
	}

	raw = trimBOM(raw)
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract plain text", fmt.Errorf("%s is not valid UTF-8 text", filename))
	}

	text := strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n"))
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract plain text", fmt.Errorf("%s is empty", filename))
	}
	return text, nil
}

var errTooLarge = errors.New("file exceeds upload limit")

func readLimited(body io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(body)
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, errTooLarge
	}
	return raw, nil
}

func trimBOM(raw []byte) []byte {
	if len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		return raw[3:]
	}
	return raw
}
