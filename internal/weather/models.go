package weather

// Condition represents a normalized high-level weather condition. Raw
// provider weather codes are translated into this set on ingestion and
// never leak past the forecast layer.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly_cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
)

// Plausible temperature band in °C; samples outside it are treated as
// sensor or API noise and dropped during parsing.
const (
	MinPlausibleTemperature = -60.0
	MaxPlausibleTemperature = 60.0
)

// PlausibleTemperature reports whether t is inside the accepted band.
func PlausibleTemperature(t float64) bool {
	return t >= MinPlausibleTemperature && t <= MaxPlausibleTemperature
}

// HourlySample is a single hour of a day's forecast.
type HourlySample struct {
	Hour        int       `json:"hour"`
	Temperature float64   `json:"temperature"`
	Condition   Condition `json:"condition"`
}

// DailyForecast is one calendar day of forecast data for a location.
// Temperature is the day mean, derived as (max+min)/2. HourlyData may be
// empty when the provider returned no hourly breakdown for the day.
type DailyForecast struct {
	Date           string         `json:"date"` // ISO 8601 calendar date
	Temperature    float64        `json:"temperature"`
	MinTemperature float64        `json:"minTemperature"`
	MaxTemperature float64        `json:"maxTemperature"`
	Condition      Condition      `json:"condition"`
	HourlyData     []HourlySample `json:"hourlyData"`
}

// ForecastSeries is the ordered multi-day forecast for one location across
// the requested date range. AverageTemperature is the arithmetic mean of
// the day means, not hour-filtered. WeatherScore is filled in by the
// scoring layer.
type ForecastSeries struct {
	LocationID         string          `json:"locationId"`
	Forecasts          []DailyForecast `json:"forecasts"`
	AverageTemperature float64         `json:"averageTemperature"`
	WeatherScore       float64         `json:"weatherScore"`
}
