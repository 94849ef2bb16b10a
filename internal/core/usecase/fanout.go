package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// extraction is one extractor's output. Each extractor goroutine owns its
// own buffered channel, so a late writer never blocks.
type extraction struct {
	signal      domain.SignalName
	document    domain.SignalValue
	hasDocument bool
	sentences   []domain.SignalValue
	duration    time.Duration
}

// signalVectors holds the joined document and per-sentence vectors.
type signalVectors struct {
	document  domain.SignalVector
	sentences []domain.SignalVector
	durations map[domain.SignalName]time.Duration
}

// runExtractors runs every extractor concurrently under one deadline and
// joins their results by signal name and span index. A late extractor is
// marked as timed out; signals without an extractor are marked disabled.
// Only cancellation of ctx itself is returned as an error.
func runExtractors(
	ctx context.Context,
	extractors []ports.SignalExtractor,
	in ports.ExtractionInput,
	timeout time.Duration,
) (signalVectors, error) {
	out := signalVectors{
		document:  disabledVector(),
		sentences: make([]domain.SignalVector, len(in.Spans)),
		durations: make(map[domain.SignalName]time.Duration, len(extractors)),
	}
	for i := range out.sentences {
		out.sentences[i] = disabledVector()
	}

	extractCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	results := make([]chan extraction, len(extractors))
	for i, extractor := range extractors {
		ch := make(chan extraction, 1)
		results[i] = ch
		go func() {
			ch <- extractOne(extractCtx, extractor, in)
		}()
	}

	for i, extractor := range extractors {
		signal := extractor.Signal()
		select {
		case res := <-results[i]:
			out.apply(res, extractor)
		case <-extractCtx.Done():
			if err := ctx.Err(); err != nil {
				return signalVectors{}, err
			}
			// The deadline may race a result that is already buffered.
			select {
			case res := <-results[i]:
				out.apply(res, extractor)
				continue
			default:
			}
			slog.Warn("signal_extractor_timeout", "signal", signal, "timeout_ms", timeout.Milliseconds())
			out.markAll(signal, extractor, domain.ReasonTimeout)
			out.durations[signal] = time.Since(started)
		}
	}

	if err := ctx.Err(); err != nil {
		return signalVectors{}, err
	}
	return out, nil
}

func extractOne(ctx context.Context, extractor ports.SignalExtractor, in ports.ExtractionInput) extraction {
	start := time.Now()
	res := extraction{signal: extractor.Signal()}
	if docExtractor, ok := extractor.(ports.DocumentSignalExtractor); ok {
		res.document = docExtractor.ExtractDocument(ctx, in)
		res.hasDocument = true
	}
	if sentenceExtractor, ok := extractor.(ports.SentenceSignalExtractor); ok {
		res.sentences = sentenceExtractor.ExtractSentences(ctx, in)
	}
	res.duration = time.Since(start)
	return res
}

func (v *signalVectors) apply(res extraction, extractor ports.SignalExtractor) {
	v.durations[res.signal] = res.duration

	if res.hasDocument {
		v.document[res.signal] = normalizeValue(res.document)
	} else {
		v.document[res.signal] = domain.Unavailable(domain.ReasonUnsupportedGrain)
	}

	if _, ok := extractor.(ports.SentenceSignalExtractor); !ok {
		for _, vector := range v.sentences {
			vector[res.signal] = domain.Unavailable(domain.ReasonUnsupportedGrain)
		}
		return
	}
	if len(res.sentences) != len(v.sentences) {
		slog.Warn("signal_extractor_sentence_mismatch",
			"signal", res.signal,
			"got", len(res.sentences),
			"want", len(v.sentences),
		)
		for _, vector := range v.sentences {
			vector[res.signal] = domain.Unavailable(domain.ReasonMalformedResponse)
		}
		return
	}
	for i, value := range res.sentences {
		v.sentences[i][res.signal] = normalizeValue(value)
	}
}

func (v *signalVectors) markAll(signal domain.SignalName, extractor ports.SignalExtractor, reason domain.UnavailableReason) {
	if _, ok := extractor.(ports.DocumentSignalExtractor); ok {
		v.document[signal] = domain.Unavailable(reason)
	} else {
		v.document[signal] = domain.Unavailable(domain.ReasonUnsupportedGrain)
	}
	sentenceReason := reason
	if _, ok := extractor.(ports.SentenceSignalExtractor); !ok {
		sentenceReason = domain.ReasonUnsupportedGrain
	}
	for _, vector := range v.sentences {
		vector[signal] = domain.Unavailable(sentenceReason)
	}
}

// normalizeValue re-checks a value produced by an extractor: out of range or
// NaN values become malformed, and a missing reason gets a default.
func normalizeValue(value domain.SignalValue) domain.SignalValue {
	if !value.Available {
		return domain.Unavailable(value.Reason)
	}
	checked := domain.Measured(value.Value)
	if checked.Available && (value.Value < 0 || value.Value > 1) {
		return domain.Unavailable(domain.ReasonMalformedResponse)
	}
	if checked.Available {
		checked.Raw = value.Raw
	}
	return checked
}

func disabledVector() domain.SignalVector {
	out := make(domain.SignalVector, len(domain.CanonicalSignals))
	for _, name := range domain.CanonicalSignals {
		out[name] = domain.Unavailable(domain.ReasonDisabled)
	}
	return out
}
