package signals

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// ExternalOptions tunes extractors backed by a model service.
type ExternalOptions struct {
	CallTimeout         time.Duration
	SentenceConcurrency int
	// SkipSentences turns off per-sentence calls; sentence values are then
	// reported as disabled.
	SkipSentences bool
	Cache         ports.SignalCache
	CacheTTL      time.Duration
}

func DefaultExternalOptions() ExternalOptions {
	return ExternalOptions{
		CallTimeout:         8 * time.Second,
		SentenceConcurrency: 4,
		CacheTTL:            5 * time.Minute,
	}
}

func (o ExternalOptions) normalize() ExternalOptions {
	def := DefaultExternalOptions()
	if o.CallTimeout <= 0 {
		o.CallTimeout = def.CallTimeout
	}
	if o.SentenceConcurrency <= 0 {
		o.SentenceConcurrency = def.SentenceConcurrency
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = def.CacheTTL
	}
	return o
}

// externalMeasure runs one model call per text with a per-call timeout and an
// optional cache of raw results.
type externalMeasure struct {
	signal domain.SignalName
	model  string
	opts   ExternalOptions
	call   func(ctx context.Context, text string) (float64, error)
}

func (m externalMeasure) measure(ctx context.Context, text string) (float64, domain.UnavailableReason) {
	if err := ctx.Err(); err != nil {
		return 0, reasonFor(ctx, err)
	}

	key := CacheKey(m.signal, m.model, text)
	if m.opts.Cache != nil {
		value, ok, err := m.opts.Cache.Get(ctx, key)
		if err != nil {
			slog.Debug("signal_cache_get_failed", "signal", m.signal, "error", err)
		} else if ok {
			return value, domain.ReasonNone
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	defer cancel()
	raw, err := m.call(callCtx, text)
	if err != nil {
		reason := reasonFor(ctx, err)
		slog.Debug("signal_call_failed", "signal", m.signal, "reason", reason, "error", err)
		return 0, reason
	}

	if m.opts.Cache != nil {
		if err := m.opts.Cache.Set(ctx, key, raw, m.opts.CacheTTL); err != nil {
			slog.Debug("signal_cache_set_failed", "signal", m.signal, "error", err)
		}
	}
	return raw, domain.ReasonNone
}

func (m externalMeasure) document(ctx context.Context, in ports.ExtractionInput, normalize func(float64) domain.SignalValue) domain.SignalValue {
	raw, reason := m.measure(ctx, in.Document.Text)
	if reason != domain.ReasonNone {
		return domain.Unavailable(reason)
	}
	return normalize(raw)
}

// sentences measures every span with bounded concurrency. Each goroutine
// writes only its own slot.
func (m externalMeasure) sentences(ctx context.Context, in ports.ExtractionInput, normalize func(float64) domain.SignalValue) []domain.SignalValue {
	out := make([]domain.SignalValue, len(in.Spans))
	if m.opts.SkipSentences {
		for i := range out {
			out[i] = domain.Unavailable(domain.ReasonDisabled)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(m.opts.SentenceConcurrency)
	for i := range in.Spans {
		g.Go(func() error {
			raw, reason := m.measure(ctx, in.SentenceText(i))
			if reason != domain.ReasonNone {
				out[i] = domain.Unavailable(reason)
				return nil
			}
			out[i] = normalize(raw)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CacheKey identifies a raw measurement by signal, model and exact text.
func CacheKey(signal domain.SignalName, model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "signal:" + string(signal) + ":" + hex.EncodeToString(sum[:])
}

func reasonFor(parent context.Context, err error) domain.UnavailableReason {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		return domain.ReasonCanceled
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ReasonTimeout
	case errors.Is(err, context.Canceled):
		return domain.ReasonCanceled
	case errors.Is(err, domain.ErrCircuitOpen):
		return domain.ReasonCircuitOpen
	case errors.Is(err, domain.ErrMalformedResponse):
		return domain.ReasonMalformedResponse
	case errors.Is(err, domain.ErrSignalUnavailable):
		return domain.ReasonInsufficientInput
	default:
		return domain.ReasonExternalError
	}
}
