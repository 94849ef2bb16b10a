package domain

import (
	"fmt"
	"math"
)

type SignalName string

const (
	SignalPerplexity           SignalName = "perplexity"
	SignalAIProbability        SignalName = "ai_probability"
	SignalBurstiness           SignalName = "burstiness"
	SignalLexicalDiversity     SignalName = "lexical_diversity"
	SignalReadabilityVariation SignalName = "readability_variation"
)

// CanonicalSignals is the fixed iteration and tie-break order for signals.
var CanonicalSignals = []SignalName{
	SignalPerplexity,
	SignalAIProbability,
	SignalBurstiness,
	SignalLexicalDiversity,
	SignalReadabilityVariation,
}

func (n SignalName) Valid() bool {
	return n.Rank() >= 0
}

// Rank is the position of n in CanonicalSignals, or -1 when unknown.
func (n SignalName) Rank() int {
	for i, name := range CanonicalSignals {
		if name == n {
			return i
		}
	}
	return -1
}

type Grain string

const (
	GrainDocument Grain = "document"
	GrainSentence Grain = "sentence"
)

type UnavailableReason string

const (
	ReasonNone              UnavailableReason = ""
	ReasonNotExtracted      UnavailableReason = "not_extracted"
	ReasonUnsupportedGrain  UnavailableReason = "unsupported_grain"
	ReasonDisabled          UnavailableReason = "disabled"
	ReasonInsufficientInput UnavailableReason = "insufficient_input"
	ReasonTimeout           UnavailableReason = "timeout"
	ReasonCanceled          UnavailableReason = "canceled"
	ReasonExternalError     UnavailableReason = "external_error"
	ReasonCircuitOpen       UnavailableReason = "circuit_open"
	ReasonMalformedResponse UnavailableReason = "malformed_response"
)

// SignalValue is one normalized measurement in [0,1], where higher means more
// human-like. An unavailable value carries the reason instead of a number.
type SignalValue struct {
	Value     float64           `json:"value"`
	Available bool              `json:"available"`
	Reason    UnavailableReason `json:"reason,omitempty"`
	Raw       *float64          `json:"raw,omitempty"`
}

// Measured builds an available value. Values are clamped into [0,1]; a NaN or
// infinite value is reported as malformed instead.
func Measured(value float64) SignalValue {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Unavailable(ReasonMalformedResponse)
	}
	return SignalValue{Value: Clamp01(value), Available: true}
}

// MeasuredRaw is Measured plus the un-normalized source measurement.
func MeasuredRaw(value, raw float64) SignalValue {
	out := Measured(value)
	if out.Available {
		out.Raw = &raw
	}
	return out
}

func Unavailable(reason UnavailableReason) SignalValue {
	if reason == ReasonNone {
		reason = ReasonNotExtracted
	}
	return SignalValue{Available: false, Reason: reason}
}

// SignalVector holds exactly one entry per canonical signal.
type SignalVector map[SignalName]SignalValue

// NewSignalVector returns a vector where every signal is explicitly marked
// not extracted, so no key is ever missing.
func NewSignalVector() SignalVector {
	out := make(SignalVector, len(CanonicalSignals))
	for _, name := range CanonicalSignals {
		out[name] = Unavailable(ReasonNotExtracted)
	}
	return out
}

func (v SignalVector) Get(name SignalName) SignalValue {
	value, ok := v[name]
	if !ok {
		return Unavailable(ReasonNotExtracted)
	}
	return value
}

// Clone returns an independent copy, including Raw pointers.
func (v SignalVector) Clone() SignalVector {
	out := make(SignalVector, len(v))
	for name, value := range v {
		if value.Raw != nil {
			raw := *value.Raw
			value.Raw = &raw
		}
		out[name] = value
	}
	return out
}

// Available lists available signals in canonical order.
func (v SignalVector) Available() []SignalName {
	out := make([]SignalName, 0, len(CanonicalSignals))
	for _, name := range CanonicalSignals {
		if v.Get(name).Available {
			out = append(out, name)
		}
	}
	return out
}

// Validate checks the full key set and the [0,1] range of available values.
func (v SignalVector) Validate() error {
	if len(v) != len(CanonicalSignals) {
		return fmt.Errorf("signal vector has %d entries, want %d", len(v), len(CanonicalSignals))
	}
	for _, name := range CanonicalSignals {
		value, ok := v[name]
		if !ok {
			return fmt.Errorf("signal vector misses %s", name)
		}
		if !value.Available {
			if value.Reason == ReasonNone {
				return fmt.Errorf("signal %s is unavailable without a reason", name)
			}
			continue
		}
		if math.IsNaN(value.Value) || value.Value < 0 || value.Value > 1 {
			return fmt.Errorf("signal %s value %v outside [0,1]", name, value.Value)
		}
	}
	return nil
}

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
