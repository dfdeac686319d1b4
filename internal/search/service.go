package search

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fairskies/destination-search/internal/geo"
	"github.com/fairskies/destination-search/internal/metrics"
	"github.com/fairskies/destination-search/internal/scoring"
	"github.com/fairskies/destination-search/internal/weather"
)

// CityDiscovery finds populated places around a center.
type CityDiscovery interface {
	FindNearby(ctx context.Context, lat, lon, radiusKm float64) ([]geo.City, error)
}

// WeatherBatch fetches forecasts for a whole candidate batch in one call.
// Candidates with no data are absent from the map, not an error.
type WeatherBatch interface {
	FetchBatch(ctx context.Context, cities []geo.City, startDate, endDate string) (map[string]weather.ForecastSeries, error)
}

// CountryFiller back-fills missing country names on candidates.
type CountryFiller interface {
	FillCountries(cities []geo.City)
}

// Result is one ranked destination.
type Result struct {
	Location        geo.City               `json:"location"`
	WeatherForecast weather.ForecastSeries `json:"weatherForecast"`
	// OverallScore currently equals the weather score; kept separate so
	// other signals (popularity, price) can be blended in later.
	OverallScore float64 `json:"overallScore"`
}

// Response is the terminal result shape. Error is nil on success, a
// user-facing message otherwise; the pipeline never fails past this.
type Response struct {
	Results []Result `json:"results"`
	Error   *string  `json:"error"`
}

const (
	// DefaultMaxCandidates bounds how many discovered places enter the
	// forecast batch.
	DefaultMaxCandidates = 60
	// DefaultMaxResults truncates the ranked output.
	DefaultMaxResults = 50

	// scoreEpsilon is the band within which two scores count as tied and
	// the closer candidate wins.
	scoreEpsilon = 0.01
)

const (
	msgDiscoveryDown = "destination search is temporarily unavailable, please try again later"
	msgForecastDown  = "weather data is temporarily unavailable, please try again later"
)

// Service runs the ranking pipeline: validate, discover, fetch, filter
// and score, sort, truncate.
type Service struct {
	discovery CityDiscovery
	forecasts WeatherBatch
	countries CountryFiller

	maxCandidates int
	maxResults    int
}

// NewService creates a Service. countries may be nil; non-positive caps
// fall back to the defaults.
func NewService(discovery CityDiscovery, forecasts WeatherBatch, countries CountryFiller, maxCandidates, maxResults int) *Service {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Service{
		discovery:     discovery,
		forecasts:     forecasts,
		countries:     countries,
		maxCandidates: maxCandidates,
		maxResults:    maxResults,
	}
}

// Search processes one request start to finish. Every failure mode is
// converted to the Response shape.
func (s *Service) Search(ctx context.Context, params Params) Response {
	started := time.Now()
	searchID := uuid.NewString()[:8]

	log.Printf("search %s: center=(%.4f,%.4f) radius=%.0fkm range=%s..%s",
		searchID, params.CenterLatitude, params.CenterLongitude,
		params.SearchRadius, params.StartDate, params.EndDate)

	if err := params.Validate(); err != nil {
		metrics.RecordSearch("invalid", time.Since(started))
		return errorResponse(err.Error())
	}

	cities, err := s.discovery.FindNearby(ctx, params.CenterLatitude, params.CenterLongitude, params.SearchRadius)
	if err != nil {
		log.Printf("search %s: discovery failed: %v", searchID, err)
		metrics.RecordSearch("discovery_failed", time.Since(started))
		return errorResponse(msgDiscoveryDown)
	}
	if len(cities) == 0 {
		log.Printf("search %s: no candidates within radius", searchID)
		metrics.RecordSearch("empty", time.Since(started))
		return Response{Results: []Result{}}
	}
	if len(cities) > s.maxCandidates {
		cities = cities[:s.maxCandidates]
	}

	if s.countries != nil {
		s.countries.FillCountries(cities)
	}

	seriesByID, err := s.forecasts.FetchBatch(ctx, cities, params.StartDate, params.EndDate)
	if err != nil {
		log.Printf("search %s: forecast batch failed: %v", searchID, err)
		metrics.RecordSearch("forecast_failed", time.Since(started))
		return errorResponse(msgForecastDown)
	}

	desired := params.DesiredConditionSet()
	hours := weather.ResolveHours(params.TimeSlots)

	var noForecast, byCondition, byTemperature int
	results := make([]Result, 0, len(cities))

	for _, city := range cities {
		series, ok := seriesByID[city.ID]
		if !ok || len(series.Forecasts) == 0 {
			metrics.RecordExclusion(metrics.StageNoForecast)
			noForecast++
			continue
		}

		// Scored before the remaining filters so excluded candidates
		// still show up in diagnostics with their would-have-been score.
		series.WeatherScore = scoring.WeatherScore(
			series.Forecasts,
			params.DesiredMinTemperature, params.DesiredMaxTemperature,
			desired, hours,
		)

		if len(desired) > 0 && !scoring.MatchesDesiredConditions(series.Forecasts, desired) {
			metrics.RecordExclusion(metrics.StageCondition)
			byCondition++
			log.Printf("search %s: excluded %s, conditions mismatch (score %.1f)", searchID, city.Name, series.WeatherScore)
			continue
		}

		if !scoring.WithinTemperatureBand(series.AverageTemperature, params.DesiredMinTemperature, params.DesiredMaxTemperature) {
			metrics.RecordExclusion(metrics.StageTemperature)
			byTemperature++
			log.Printf("search %s: excluded %s, mean %.1f°C out of band (score %.1f)", searchID, city.Name, series.AverageTemperature, series.WeatherScore)
			continue
		}

		results = append(results, Result{
			Location:        city,
			WeatherForecast: series,
			OverallScore:    series.WeatherScore,
		})
	}

	sortResults(results)
	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	log.Printf("search %s: returning %d results (excluded: no_forecast=%d condition=%d temperature=%d)",
		searchID, len(results), noForecast, byCondition, byTemperature)
	metrics.RecordSearch("ok", time.Since(started))

	return Response{Results: results}
}

// sortResults orders by score descending; scores within scoreEpsilon count
// as equal and the closer candidate wins.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		diff := results[i].OverallScore - results[j].OverallScore
		if math.Abs(diff) <= scoreEpsilon {
			return results[i].Location.Distance < results[j].Location.Distance
		}
		return diff > 0
	})
}

func errorResponse(msg string) Response {
	return Response{Results: []Result{}, Error: &msg}
}
