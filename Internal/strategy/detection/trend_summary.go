package detection

import (
	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils"
)

// SummarizeTimeline keeps the last tail points and compares the mean of the
// newest window points against the mean of the oldest window points.
// With window 1 this is the plain first-vs-last comparison.
func SummarizeTimeline(values []float64, tail, window int) types.TrendSummary {
	if tail > 0 && len(values) > tail {
		values = values[len(values)-tail:]
	}
	data := make([]float64, len(values))
	copy(data, values)

	if len(data) == 0 {
		return types.TrendSummary{TrendData: data}
	}
	if window < 1 {
		window = 1
	}
	if window > len(data) {
		window = len(data)
	}

	current := utils.Average(data[len(data)-window:])
	prior := utils.Average(data[:window])

	var variation float64
	if prior > 0 {
		variation = (current - prior) / prior * 100
	}

	return types.TrendSummary{
		Current:   current,
		Variation: utils.Round(variation, 1),
		TrendData: data,
	}
}
