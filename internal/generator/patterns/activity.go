package patterns

import (
	"math"
	"sort"
)

// ActivityDistribution spreads log lines across accounts following a power
// law, so a few accounts are busy and most are quiet.
type ActivityDistribution struct {
	// fraction of accounts that produce ~80% of the lines
	ratio float64
	// steepness derived from ratio
	intensity float64
}

// NewParetoDistribution creates a distribution where ratio of the accounts
// produce about 80% of the activity. Out of range ratios fall back to 0.2.
func NewParetoDistribution(ratio float64) *ActivityDistribution {
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.2
	}
	return &ActivityDistribution{
		ratio:     ratio,
		intensity: math.Log(0.8) / math.Log(ratio),
	}
}

// NewUniformDistribution gives every account the same weight
func NewUniformDistribution() *ActivityDistribution {
	return &ActivityDistribution{ratio: 1, intensity: 1}
}

// Score maps a percentile in [0, 1] to an activity score in [0, 1]
func (ad *ActivityDistribution) Score(percentile float64) float64 {
	percentile = clamp(percentile)
	if ad.intensity == 1 {
		return 1
	}
	return math.Pow(percentile, 1.0/ad.intensity)
}

// Weights returns n weights summing to 1, highest first
func (ad *ActivityDistribution) Weights(n int) []float64 {
	if n <= 0 {
		return nil
	}

	weights := make([]float64, n)
	var total float64
	for i := range weights {
		weights[i] = ad.Score(float64(i+1) / float64(n+1))
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))
	return weights
}

// Pick returns the index selected by u in [0, 1) against weights
func Pick(weights []float64, u float64) int {
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if u < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// ExponentialAmount maps u in [0, 1) to an amount in cents within
// [0, maxCents): many small amounts, few large ones, rounded to
// realistic steps.
func ExponentialAmount(u float64, maxCents int64) int64 {
	if maxCents <= 0 {
		return 0
	}
	if u >= 0.9999 {
		u = 0.9999
	}

	fraction := -math.Log(1-u) / 5.0
	if fraction > 1 {
		fraction = 1
	}

	amount := roundAmount(int64(float64(maxCents) * fraction))
	if amount >= maxCents {
		amount = roundAmount(maxCents - 1)
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// roundAmount rounds cents to common steps: 5 cents under $10,
// 25 cents under $100, whole dollars above.
func roundAmount(cents int64) int64 {
	switch {
	case cents < 1000:
		return (cents / 5) * 5
	case cents < 10000:
		return (cents / 25) * 25
	default:
		return (cents / 100) * 100
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
