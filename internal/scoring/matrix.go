package scoring

import "github.com/fairskies/destination-search/internal/weather"

// ConditionMatchScore returns a 0-100 compatibility score between an
// observed condition and a desired one. The table is symmetric: clear and
// partly_cloudy are near-interchangeable, clear against cloudy is a
// moderate mismatch, and rain on either side is the strongest negative
// signal unless it was exactly what was asked for.
func ConditionMatchScore(actual, desired weather.Condition) float64 {
	if actual == desired {
		return 100
	}
	if isPair(actual, desired, weather.ConditionClear, weather.ConditionPartlyCloudy) {
		return 85
	}
	if isPair(actual, desired, weather.ConditionClear, weather.ConditionCloudy) {
		return 65
	}
	if actual == weather.ConditionRain || desired == weather.ConditionRain {
		return 35
	}
	return 50
}

func isPair(a, b, x, y weather.Condition) bool {
	return (a == x && b == y) || (a == y && b == x)
}
