package matching

import (
	"fmt"
	"math"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// DefaultWeights are used when a query carries no override. They already sum
// to 1 and are applied as-is.
var DefaultWeights = [domain.AxisCount]float64{
	domain.AxisPsychological: 0.45,
	domain.AxisValues:        0.25,
	domain.AxisInterests:     0.20,
	domain.AxisBehavioral:    0.10,
}

// ResolveWeights validates an override keyed by axis name and rescales it to
// sum to 1. An empty override selects DefaultWeights.
func ResolveWeights(raw map[string]float64) ([domain.AxisCount]float64, error) {
	if len(raw) == 0 {
		return DefaultWeights, nil
	}

	var out [domain.AxisCount]float64
	var seen [domain.AxisCount]bool
	for name, w := range raw {
		axis, ok := domain.ParseAxis(name)
		if !ok {
			return out, fmt.Errorf("%w: unknown axis %q", domain.ErrInvalidWeights, name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return out, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidWeights, name)
		}
		out[axis] = w
		seen[axis] = true
	}

	var sum float64
	for _, axis := range domain.Axes {
		if !seen[axis] {
			return out, fmt.Errorf("%w: missing axis %q", domain.ErrInvalidWeights, axis)
		}
		sum += out[axis]
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		return out, fmt.Errorf("%w: weights must have a positive sum", domain.ErrInvalidWeights)
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// Combine returns the weighted sum of per-axis similarities.
func Combine(weights, sims [domain.AxisCount]float64) float64 {
	var score float64
	for i := range weights {
		score += weights[i] * sims[i]
	}
	return score
}
