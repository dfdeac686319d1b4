package scoring

import (
	"math"

	"github.com/fairskies/destination-search/internal/weather"
)

// Scoring constants. The defaults model a generic "warm and pleasant"
// target when the user states no temperature preference; the weights and
// the stability placeholder are tuned empirically.
const (
	DefaultDesiredMinTemp = 20.0
	DefaultDesiredMaxTemp = 30.0

	// temperatureDecayScaleC is the characteristic scale of the
	// exponential temperature-fit decay: a 10°C deviation scores ~36.8.
	temperatureDecayScaleC = 10.0

	// stabilityScore is a fixed placeholder reserved for a future
	// day-to-day variance penalty.
	stabilityScore = 70.0

	temperatureWeight = 0.35
	conditionWeight   = 0.50
	stabilityWeight   = 0.15
)

// WeatherScore computes the composite 0-100 desirability score of a
// forecast series against the user's preferences, averaged over all days.
// An empty series scores exactly 0. Pure function.
func WeatherScore(
	days []weather.DailyForecast,
	desiredMin, desiredMax *float64,
	desired []weather.Condition,
	selectedHours map[int]struct{},
) float64 {
	if len(days) == 0 {
		return 0
	}

	lo := DefaultDesiredMinTemp
	if desiredMin != nil {
		lo = *desiredMin
	}
	hi := DefaultDesiredMaxTemp
	if desiredMax != nil {
		hi = *desiredMax
	}
	desiredMid := (lo + hi) / 2

	var total float64
	for _, day := range days {
		agg := weather.FilterByHours(day, selectedHours)

		actualAvg := (agg.MinTemp + agg.MaxTemp) / 2
		tempFit := 100 * math.Exp(-math.Abs(actualAvg-desiredMid)/temperatureDecayScaleC)

		// Best-case condition matching: a day is judged by its best
		// alignment with any one acceptable condition.
		var conditionFit float64
		if len(desired) > 0 {
			for _, want := range desired {
				if s := ConditionMatchScore(agg.Condition, want); s > conditionFit {
					conditionFit = s
				}
			}
		} else {
			conditionFit = ConditionMatchScore(agg.Condition, weather.ConditionClear)
		}

		total += tempFit*temperatureWeight + conditionFit*conditionWeight + stabilityScore*stabilityWeight
	}

	return total / float64(len(days))
}
