package scoring

import (
	"math"

	"github.com/fairskies/destination-search/internal/weather"
)

// conditionMajorityFraction is the share of days that must match the
// desired conditions for a series to pass the condition filter. Chosen
// empirically; a few off days in a multi-day window are tolerated.
const conditionMajorityFraction = 0.5

// TemperatureToleranceC is the slack band added around a hard temperature
// preference before a candidate is excluded. Applied to the unfiltered
// whole-range mean, deliberately looser than the hour-aware scoring.
const TemperatureToleranceC = 5.0

// legacy synonym for clear still sent by older clients
const conditionSunny = weather.Condition("sunny")

// MatchesDesiredConditions reports whether a multi-day forecast, as a
// whole, satisfies the desired condition set: at least half the days
// (rounded up) must match. An empty desired set always matches; an empty
// series never does.
func MatchesDesiredConditions(days []weather.DailyForecast, desired []weather.Condition) bool {
	if len(desired) == 0 {
		return true
	}
	if len(days) == 0 {
		return false
	}

	matching := 0
	for _, day := range days {
		for _, want := range desired {
			if conditionsMatch(day.Condition, want) {
				matching++
				break
			}
		}
	}

	threshold := int(math.Ceil(conditionMajorityFraction * float64(len(days))))
	return matching >= threshold
}

// conditionsMatch is looser than equality: partly_cloudy counts as
// matching a desire for clear, and the legacy "sunny" synonym cross-matches
// clear in both directions.
func conditionsMatch(actual, desired weather.Condition) bool {
	if actual == desired {
		return true
	}
	if (actual == weather.ConditionClear || actual == conditionSunny) &&
		(desired == weather.ConditionClear || desired == conditionSunny) {
		return true
	}
	if actual == weather.ConditionPartlyCloudy && desired == weather.ConditionClear {
		return true
	}
	return false
}

// WithinTemperatureBand reports whether a series' whole-range mean
// temperature sits inside the requested bounds widened by
// TemperatureToleranceC. Nil bounds are unconstrained.
func WithinTemperatureBand(meanTemp float64, desiredMin, desiredMax *float64) bool {
	if desiredMin != nil && meanTemp < *desiredMin-TemperatureToleranceC {
		return false
	}
	if desiredMax != nil && meanTemp > *desiredMax+TemperatureToleranceC {
		return false
	}
	return true
}
