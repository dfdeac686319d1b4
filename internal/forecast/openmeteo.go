package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fairskies/destination-search/internal/cache"
	"github.com/fairskies/destination-search/internal/geo"
	"github.com/fairskies/destination-search/internal/metrics"
	"github.com/fairskies/destination-search/internal/weather"
)

// ErrUnavailable is returned when the forecast backend could not serve the
// batch and no cached data exists for any candidate.
var ErrUnavailable = errors.New("weather forecasts unavailable")

// DefaultBaseURL is the public Open-Meteo forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

const hourlyTimeLayout = "2006-01-02T15:04"

// Client fetches multi-day forecasts for a whole candidate batch in a
// single upstream call, with per-candidate TTL caching, outbound rate
// limiting, and a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	circuit    *gobreaker.CircuitBreaker
	cache      cache.Store
}

// NewClient creates a forecast Client. A nil httpClient gets a 10s
// timeout; a non-positive ratePerSec disables rate limiting.
func NewClient(httpClient *http.Client, store cache.Store, baseURL string, ratePerSec float64) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 3)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openmeteo",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		cache: store,
	}
}

// FetchBatch returns forecast series keyed by candidate ID for the date
// range (inclusive, ISO dates). Cached candidates are served locally; the
// rest are fetched in one batched upstream call. Candidates with no usable
// data are simply absent from the result.
func (c *Client) FetchBatch(ctx context.Context, cities []geo.City, startDate, endDate string) (map[string]weather.ForecastSeries, error) {
	result := make(map[string]weather.ForecastSeries, len(cities))

	var misses []geo.City
	for _, city := range cities {
		key := c.cacheKey(city, startDate, endDate)
		if c.cache != nil {
			if payload, fresh, ok := c.cache.Get(ctx, key); ok && fresh {
				var series weather.ForecastSeries
				if err := json.Unmarshal(payload, &series); err == nil {
					metrics.RecordCacheLookup("weather", "hit")
					result[city.ID] = series
					continue
				}
			}
		}
		metrics.RecordCacheLookup("weather", "miss")
		misses = append(misses, city)
	}

	if len(misses) == 0 {
		return result, nil
	}

	responses, err := c.fetch(ctx, misses, startDate, endDate)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("forecast").Inc()
		if len(result) > 0 {
			// Partial coverage from cache beats a hard failure.
			log.Printf("forecast: batch fetch failed, serving %d cached series: %v", len(result), err)
			return result, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(responses) != len(misses) {
		log.Printf("forecast: expected %d batch responses, got %d", len(misses), len(responses))
	}

	for i, city := range misses {
		if i >= len(responses) {
			break
		}

		days := parseDays(responses[i])
		if len(days) == 0 {
			continue
		}

		series := weather.ForecastSeries{
			LocationID:         city.ID,
			Forecasts:          days,
			AverageTemperature: meanTemperature(days),
		}
		result[city.ID] = series

		if c.cache != nil {
			if payload, err := json.Marshal(series); err == nil {
				if err := c.cache.Set(ctx, c.cacheKey(city, startDate, endDate), payload); err != nil {
					log.Printf("forecast: cache write failed for %s: %v", city.ID, err)
				}
			}
		}
	}

	return result, nil
}

func (c *Client) cacheKey(city geo.City, startDate, endDate string) string {
	return fmt.Sprintf("weather_%.2f_%.2f_%s_%s", city.Latitude, city.Longitude, startDate, endDate)
}

// fetch performs the single batched upstream call. Open-Meteo answers a
// multi-coordinate request with a JSON array in request order, and a
// single-coordinate request with a bare object.
func (c *Client) fetch(ctx context.Context, cities []geo.City, startDate, endDate string) ([]openMeteoResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	lats := make([]string, len(cities))
	lons := make([]string, len(cities))
	for i, city := range cities {
		lats[i] = fmt.Sprintf("%.4f", city.Latitude)
		lons[i] = fmt.Sprintf("%.4f", city.Longitude)
	}

	values := url.Values{}
	values.Set("latitude", strings.Join(lats, ","))
	values.Set("longitude", strings.Join(lons, ","))
	values.Set("start_date", startDate)
	values.Set("end_date", endDate)
	values.Set("daily", "temperature_2m_max,temperature_2m_min,weathercode")
	values.Set("hourly", "temperature_2m,weathercode")
	values.Set("timezone", "auto")

	body, err := c.circuit.Execute(func() (interface{}, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
		if reqErr != nil {
			return nil, reqErr
		}

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	raw := body.([]byte)
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var responses []openMeteoResponse
		if err := json.Unmarshal(raw, &responses); err != nil {
			return nil, fmt.Errorf("decode forecast batch: %w", err)
		}
		return responses, nil
	}

	var single openMeteoResponse
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return []openMeteoResponse{single}, nil
}

// openMeteoResponse mirrors the provider's parallel-array layout. Missing
// readings arrive as null, hence the pointer temperatures.
type openMeteoResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		Temperature2mMax []*float64 `json:"temperature_2m_max"`
		Temperature2mMin []*float64 `json:"temperature_2m_min"`
		WeatherCode      []int      `json:"weathercode"`
	} `json:"daily"`
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature2m []*float64 `json:"temperature_2m"`
		WeatherCode   []int      `json:"weathercode"`
	} `json:"hourly"`
}

// parseDays normalizes one location's response into daily forecasts.
// Days with missing or implausible temperatures are dropped.
func parseDays(resp openMeteoResponse) []weather.DailyForecast {
	hourlyByDate := make(map[string][]weather.HourlySample)
	for i, ts := range resp.Hourly.Time {
		if i >= len(resp.Hourly.Temperature2m) || resp.Hourly.Temperature2m[i] == nil {
			continue
		}

		t, err := time.Parse(hourlyTimeLayout, ts)
		if err != nil {
			continue
		}

		code := 0
		if i < len(resp.Hourly.WeatherCode) {
			code = resp.Hourly.WeatherCode[i]
		}

		dateKey := ts[:10]
		hourlyByDate[dateKey] = append(hourlyByDate[dateKey], weather.HourlySample{
			Hour:        t.Hour(),
			Temperature: *resp.Hourly.Temperature2m[i],
			Condition:   weather.ClassifyCode(code),
		})
	}

	var days []weather.DailyForecast
	for i, date := range resp.Daily.Time {
		if i >= len(resp.Daily.Temperature2mMax) || i >= len(resp.Daily.Temperature2mMin) {
			break
		}

		maxT := resp.Daily.Temperature2mMax[i]
		minT := resp.Daily.Temperature2mMin[i]
		if maxT == nil || minT == nil {
			continue
		}
		if !weather.PlausibleTemperature(*maxT) || !weather.PlausibleTemperature(*minT) {
			continue
		}

		code := 0
		if i < len(resp.Daily.WeatherCode) {
			code = resp.Daily.WeatherCode[i]
		}

		days = append(days, weather.DailyForecast{
			Date:           date,
			Temperature:    (*maxT + *minT) / 2,
			MinTemperature: *minT,
			MaxTemperature: *maxT,
			Condition:      weather.ClassifyCode(code),
			HourlyData:     hourlyByDate[date],
		})
	}

	return days
}

func meanTemperature(days []weather.DailyForecast) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, day := range days {
		sum += day.Temperature
	}
	return sum / float64(len(days))
}
