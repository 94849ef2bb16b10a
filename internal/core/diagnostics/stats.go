package diagnostics

import (
	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

type signalStats struct {
	values []float64
	mean   float64
}

func collectStats(vectors []domain.SignalVector) map[domain.SignalName]signalStats {
	out := make(map[domain.SignalName]signalStats, len(domain.CanonicalSignals))
	for _, name := range domain.CanonicalSignals {
		var st signalStats
		sum := 0.0
		for _, vector := range vectors {
			if vector == nil {
				continue
			}
			if value := vector.Get(name); value.Available {
				st.values = append(st.values, value.Value)
				sum += value.Value
			}
		}
		if len(st.values) > 0 {
			st.mean = sum / float64(len(st.values))
		}
		out[name] = st
	}
	return out
}

// percentile is the mid-rank of v among the sibling values, in [0,1]. A lone
// value sits at 0.5.
func (s signalStats) percentile(v float64) float64 {
	n := len(s.values)
	if n <= 1 {
		return 0.5
	}
	below, equal := 0, 0
	for _, x := range s.values {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	if equal == 0 {
		equal = 1
	}
	return (float64(below) + float64(equal-1)/2) / float64(n-1)
}
