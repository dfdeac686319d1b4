package weather

// DayAggregate is the hour-filtered view of a single forecast day.
type DayAggregate struct {
	AvgTemp   float64
	MinTemp   float64
	MaxTemp   float64
	Condition Condition
}

// FilterByHours reduces a day's hourly samples to a representative
// aggregate over the selected hours. When hours is empty, the day has no
// hourly breakdown, or none of its samples fall in the selected hours, the
// day's own whole-day values are returned unchanged.
func FilterByHours(day DailyForecast, hours map[int]struct{}) DayAggregate {
	wholeDay := DayAggregate{
		AvgTemp:   day.Temperature,
		MinTemp:   day.MinTemperature,
		MaxTemp:   day.MaxTemperature,
		Condition: day.Condition,
	}

	if len(hours) == 0 || len(day.HourlyData) == 0 {
		return wholeDay
	}

	var (
		sum      float64
		min, max float64
		n        int
	)
	counts := make(map[Condition]int)

	// Dominant condition, ties broken by first encountered in sample order.
	dominant := day.Condition
	bestCount := 0

	for _, sample := range day.HourlyData {
		if _, ok := hours[sample.Hour]; !ok {
			continue
		}

		if n == 0 {
			min = sample.Temperature
			max = sample.Temperature
		} else {
			if sample.Temperature < min {
				min = sample.Temperature
			}
			if sample.Temperature > max {
				max = sample.Temperature
			}
		}
		sum += sample.Temperature
		n++

		counts[sample.Condition]++
		if counts[sample.Condition] > bestCount {
			bestCount = counts[sample.Condition]
			dominant = sample.Condition
		}
	}

	if n == 0 {
		return wholeDay
	}

	return DayAggregate{
		AvgTemp:   sum / float64(n),
		MinTemp:   min,
		MaxTemp:   max,
		Condition: dominant,
	}
}
