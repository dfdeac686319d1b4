package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/fairskies/destination-search/internal/geo"
	"github.com/fairskies/destination-search/internal/search"
	"github.com/fairskies/destination-search/internal/weather"
)

type stubDiscovery struct {
	cities []geo.City
}

func (s *stubDiscovery) FindNearby(_ context.Context, _, _, _ float64) ([]geo.City, error) {
	return s.cities, nil
}

type stubForecasts struct {
	series map[string]weather.ForecastSeries
}

func (s *stubForecasts) FetchBatch(_ context.Context, _ []geo.City, _, _ string) (map[string]weather.ForecastSeries, error) {
	return s.series, nil
}

func testApp() *fiber.App {
	lyon := geo.City{ID: "1", Name: "Lyon", Latitude: 45.764, Longitude: 4.8357, Distance: 0}
	series := weather.ForecastSeries{
		LocationID: "1",
		Forecasts: []weather.DailyForecast{{
			Date:           "2026-06-01",
			Temperature:    25,
			MinTemperature: 20,
			MaxTemperature: 30,
			Condition:      weather.ConditionClear,
		}},
		AverageTemperature: 25,
	}

	svc := search.NewService(
		&stubDiscovery{cities: []geo.City{lyon}},
		&stubForecasts{series: map[string]weather.ForecastSeries{"1": series}},
		nil, 0, 0,
	)

	app := fiber.New()
	RegisterRoutes(app, svc)
	return app
}

func postSearch(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/destinations/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func TestSearchEndpointMalformedJSON(t *testing.T) {
	resp := postSearch(t, testApp(), "{not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

// TestSearchEndpointValidationError verifies invalid parameters still
// answer 200 with the {results, error} envelope.
func TestSearchEndpointValidationError(t *testing.T) {
	body := `{"centerLatitude": 45.764, "centerLongitude": 4.8357, "searchRadius": -10,
	          "startDate": "2026-06-01", "endDate": "2026-06-03"}`
	resp := postSearch(t, testApp(), body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var payload search.Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error == nil || !strings.Contains(*payload.Error, "positive") {
		t.Errorf("expected a radius error mentioning 'positive', got %v", payload.Error)
	}
	if len(payload.Results) != 0 {
		t.Errorf("got %d results with an error, want 0", len(payload.Results))
	}
}

func TestSearchEndpointSuccess(t *testing.T) {
	body := `{"centerLatitude": 45.764, "centerLongitude": 4.8357, "searchRadius": 20,
	          "startDate": "2026-06-01", "endDate": "2026-06-01",
	          "desiredConditions": ["clear"], "timeSlots": ["morning", "afternoon"]}`
	resp := postSearch(t, testApp(), body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var payload search.Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error != nil {
		t.Fatalf("unexpected error: %v", *payload.Error)
	}
	if len(payload.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(payload.Results))
	}

	result := payload.Results[0]
	if result.Location.Name != "Lyon" {
		t.Errorf("result location = %q, want Lyon", result.Location.Name)
	}
	if result.WeatherForecast.LocationID != "1" {
		t.Errorf("forecast locationId = %q, want 1", result.WeatherForecast.LocationID)
	}
	if result.OverallScore <= 0 || result.OverallScore > 100 {
		t.Errorf("overall score %v out of range", result.OverallScore)
	}
}
