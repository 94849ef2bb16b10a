package scoring

import (
	"errors"
	"math"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

const reducedCoverage = 0.5

// Aggregator combines a signal vector into a Score. It holds no state; the
// weighting arrives with every call so tests and requests can inject their own.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate scores vector at grain under weighting. Signals are visited in
// canonical order so equal inputs give bit-identical results.
func (a *Aggregator) Aggregate(vector domain.SignalVector, weighting domain.WeightingConfig, grain domain.Grain) (*domain.Score, error) {
	if err := weighting.Validate(); err != nil {
		return nil, err
	}
	if vector == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "aggregate", errors.New("signal vector is nil"))
	}

	table := weighting.TableFor(grain)
	policy := weighting.MissingSignalPolicy

	var (
		weighted    float64
		usedWeight  float64
		totalWeight float64
		used        []domain.SignalName
		missing     []domain.SignalName
		required    []domain.SignalName
	)
	for _, name := range domain.CanonicalSignals {
		weight := table[name]
		if weight <= 0 {
			continue
		}
		value := vector.Get(name)
		if !value.Available {
			missing = append(missing, name)
			if value.Reason != domain.ReasonUnsupportedGrain {
				required = append(required, name)
				totalWeight += weight
			}
			continue
		}
		totalWeight += weight
		usedWeight += weight
		weighted += weight * value.Value
		used = append(used, name)
	}

	if len(used) == 0 || (policy == domain.PolicyFail && len(required) > 0) {
		return nil, &domain.InsufficientSignalError{Grain: grain, Policy: policy, Missing: missing}
	}

	var fraction float64
	switch policy {
	case domain.PolicyZero:
		fraction = weighted / totalWeight
	default:
		fraction = weighted / usedWeight
	}

	coverage := usedWeight / totalWeight
	return &domain.Score{
		Value:          roundTenth(100 * domain.Clamp01(fraction)),
		Grain:          grain,
		Signals:        vector.Clone(),
		Weights:        copyTable(table),
		Policy:         policy,
		UsedSignals:    used,
		MissingSignals: missing,
		Confidence:     confidenceFor(coverage),
		Degraded:       coverage < 1,
	}, nil
}

func confidenceFor(coverage float64) domain.Confidence {
	level := domain.ConfidenceLow
	switch {
	case coverage >= 1:
		level = domain.ConfidenceFull
	case coverage >= reducedCoverage:
		level = domain.ConfidenceReduced
	}
	return domain.Confidence{Level: level, Coverage: roundHundredth(coverage)}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundHundredth(v float64) float64 {
	return math.Round(v*100) / 100
}

func copyTable(table map[domain.SignalName]float64) map[domain.SignalName]float64 {
	out := make(map[domain.SignalName]float64, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}
