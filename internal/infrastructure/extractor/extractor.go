// Package extractor picks a file text extractor by extension.
package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/extractor/plaintext"
)

type Registry struct {
	byExt map[string]ports.TextExtractor
}

// NewRegistry wires the built-in extractors for text, markdown and PDF.
func NewRegistry(maxBytes int64) *Registry {
	text := plaintext.NewExtractor(maxBytes)
	return &Registry{byExt: map[string]ports.TextExtractor{
		".txt":      text,
		".text":     text,
		".md":       text,
		".markdown": text,
		".pdf":      pdf.NewExtractor(maxBytes),
	}}
}

// Register adds or replaces the extractor for ext (with or without the dot).
func (r *Registry) Register(ext string, extractor ports.TextExtractor) {
	r.byExt[normalizeExt(ext)] = extractor
}

func (r *Registry) Extract(ctx context.Context, filename string, body io.Reader) (string, error) {
	ext := normalizeExt(filepath.Ext(filename))
	extractor, ok := r.byExt[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract file",
			fmt.Errorf("unsupported file type %q, expected one of %s", ext, strings.Join(r.Supported(), ", ")))
	}
	return extractor.Extract(ctx, filename, body)
}

func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
