package domain

import (
	"errors"
	"fmt"
	"math"
)

type MissingSignalPolicy string

const (
	PolicyRenormalize MissingSignalPolicy = "renormalize"
	PolicyZero        MissingSignalPolicy = "zero"
	PolicyFail        MissingSignalPolicy = "fail"
)

func (p MissingSignalPolicy) Valid() bool {
	switch p {
	case PolicyRenormalize, PolicyZero, PolicyFail:
		return true
	default:
		return false
	}
}

// WeightingConfig is the explicit weighting table handed to the aggregator.
// SentenceWeights, when set, replaces Weights at sentence grain.
type WeightingConfig struct {
	Weights             map[SignalName]float64 `json:"weights" yaml:"weights"`
	SentenceWeights     map[SignalName]float64 `json:"sentence_weights,omitempty" yaml:"sentence_weights,omitempty"`
	MissingSignalPolicy MissingSignalPolicy    `json:"missing_signal_policy" yaml:"missing_signal_policy"`
}

// DefaultWeighting favours the model-backed signals and keeps the local
// statistics as supporting evidence.
func DefaultWeighting() WeightingConfig {
	return WeightingConfig{
		Weights: map[SignalName]float64{
			SignalPerplexity:           0.30,
			SignalAIProbability:        0.25,
			SignalBurstiness:           0.20,
			SignalLexicalDiversity:     0.15,
			SignalReadabilityVariation: 0.10,
		},
		MissingSignalPolicy: PolicyRenormalize,
	}
}

// TableFor returns the weights used at grain.
func (w WeightingConfig) TableFor(grain Grain) map[SignalName]float64 {
	if grain == GrainSentence && len(w.SentenceWeights) > 0 {
		return w.SentenceWeights
	}
	return w.Weights
}

func (w WeightingConfig) Validate() error {
	if !w.MissingSignalPolicy.Valid() {
		return WrapError(ErrInvalidInput, "validate weighting", fmt.Errorf("unknown missing signal policy %q", w.MissingSignalPolicy))
	}
	if err := validateWeightTable("weights", w.Weights); err != nil {
		return err
	}
	if len(w.SentenceWeights) > 0 {
		if err := validateWeightTable("sentence_weights", w.SentenceWeights); err != nil {
			return err
		}
	}
	return nil
}

func validateWeightTable(field string, table map[SignalName]float64) error {
	if len(table) == 0 {
		return WrapError(ErrInvalidInput, "validate weighting", fmt.Errorf("%s is empty", field))
	}
	total := 0.0
	for name, weight := range table {
		if !name.Valid() {
			return WrapError(ErrInvalidInput, "validate weighting", fmt.Errorf("%s: unknown signal %q", field, name))
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
			return WrapError(ErrInvalidInput, "validate weighting", fmt.Errorf("%s: weight for %s must be a finite value >= 0", field, name))
		}
		total += weight
	}
	if total <= 0 {
		return WrapError(ErrInvalidInput, "validate weighting", errors.New(field+": at least one weight must be positive"))
	}
	return nil
}

// Clone returns a deep copy so a snapshot cannot be changed by its source.
func (w WeightingConfig) Clone() WeightingConfig {
	out := WeightingConfig{MissingSignalPolicy: w.MissingSignalPolicy}
	if w.Weights != nil {
		out.Weights = make(map[SignalName]float64, len(w.Weights))
		for k, v := range w.Weights {
			out.Weights[k] = v
		}
	}
	if w.SentenceWeights != nil {
		out.SentenceWeights = make(map[SignalName]float64, len(w.SentenceWeights))
		for k, v := range w.SentenceWeights {
			out.SentenceWeights[k] = v
		}
	}
	return out
}

type ConfidenceLevel string

const (
	ConfidenceFull    ConfidenceLevel = "full"
	ConfidenceReduced ConfidenceLevel = "reduced"
	ConfidenceLow     ConfidenceLevel = "low"
)

// Confidence reports how much of the configured weight was backed by
// available signals.
type Confidence struct {
	Level    ConfidenceLevel `json:"level"`
	Coverage float64         `json:"coverage"`
}

// Score is an immutable human-likeness score for one grain.
type Score struct {
	Value          float64                `json:"value"`
	Grain          Grain                  `json:"grain"`
	Signals        SignalVector           `json:"signals"`
	Weights        map[SignalName]float64 `json:"weights"`
	Policy         MissingSignalPolicy    `json:"policy"`
	UsedSignals    []SignalName           `json:"used_signals"`
	MissingSignals []SignalName           `json:"missing_signals,omitempty"`
	Confidence     Confidence             `json:"confidence"`
	Degraded       bool                   `json:"degraded"`
}

// Fraction is Value rescaled to [0,1].
func (s *Score) Fraction() float64 {
	if s == nil {
		return 0
	}
	return s.Value / 100
}

// DiagnosticThresholds tunes how sentences are categorized.
type DiagnosticThresholds struct {
	// Natural is the minimum sentence score fraction labelled natural.
	Natural float64 `json:"natural" yaml:"natural"`
}

func DefaultDiagnosticThresholds() DiagnosticThresholds {
	return DiagnosticThresholds{Natural: 0.60}
}

// ScoringProfile is the dynamic part of scoring configuration. A request reads
// one profile snapshot at start and uses it throughout.
type ScoringProfile struct {
	Name        string               `json:"name" yaml:"name"`
	Weighting   WeightingConfig      `json:"weighting" yaml:"weighting"`
	Diagnostics DiagnosticThresholds `json:"diagnostics" yaml:"diagnostics"`
}

func DefaultScoringProfile() ScoringProfile {
	return ScoringProfile{
		Name:        "default",
		Weighting:   DefaultWeighting(),
		Diagnostics: DefaultDiagnosticThresholds(),
	}
}

func (p ScoringProfile) Validate() error {
	if err := p.Weighting.Validate(); err != nil {
		return err
	}
	if math.IsNaN(p.Diagnostics.Natural) || p.Diagnostics.Natural <= 0 || p.Diagnostics.Natural > 1 {
		return WrapError(ErrInvalidInput, "validate profile", fmt.Errorf("diagnostics.natural must be in (0,1], got %v", p.Diagnostics.Natural))
	}
	return nil
}
