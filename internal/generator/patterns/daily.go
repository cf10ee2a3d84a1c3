package patterns

// DailyPattern weights the hours of the day for generated timestamps.
// 1.0 is average activity.
type DailyPattern struct {
	hourly [24]float64
}

// NewDailyPattern returns a retail banking curve: morning and lunch peaks,
// a pre-cutoff rush around 16:00, and quiet nights.
func NewDailyPattern() *DailyPattern {
	return &DailyPattern{hourly: [24]float64{
		0.05, 0.03, 0.02, 0.02, 0.03, 0.08, // 00-05
		0.20, 0.50, 1.40, 1.60, 1.20, 1.00, // 06-11
		1.50, 1.30, 1.10, 1.00, 1.30, 1.20, // 12-17
		0.80, 0.50, 0.30, 0.20, 0.10, 0.05, // 18-23
	}}
}

// NewFlatPattern weights every hour equally
func NewFlatPattern() *DailyPattern {
	dp := &DailyPattern{}
	for i := range dp.hourly {
		dp.hourly[i] = 1
	}
	return dp
}

// Multiplier returns the weight of hour (0-23)
func (dp *DailyPattern) Multiplier(hour int) float64 {
	if hour < 0 || hour > 23 {
		return 0
	}
	return dp.hourly[hour]
}

// Hour maps u in [0, 1) to an hour, weighted by the pattern
func (dp *DailyPattern) Hour(u float64) int {
	var total float64
	for _, m := range dp.hourly {
		total += m
	}

	weights := make([]float64, len(dp.hourly))
	for i, m := range dp.hourly {
		weights[i] = m / total
	}
	return Pick(weights, clamp(u))
}
