package forecast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fairskies/destination-search/internal/cache"
	"github.com/fairskies/destination-search/internal/geo"
	"github.com/fairskies/destination-search/internal/weather"
)

var lyon = geo.City{ID: "1", Name: "Lyon", Latitude: 45.7640, Longitude: 4.8357}
var paris = geo.City{ID: "2", Name: "Paris", Latitude: 48.8566, Longitude: 2.3522}

const singleDayFixture = `{
  "daily": {
    "time": ["2026-06-01"],
    "temperature_2m_max": [20],
    "temperature_2m_min": [10],
    "weathercode": [0]
  },
  "hourly": {
    "time": ["2026-06-01T08:00", "2026-06-01T14:00"],
    "temperature_2m": [12, 19],
    "weathercode": [0, 61]
  }
}`

func newTestClient(t *testing.T, store cache.Store, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&http.Client{Timeout: 5 * time.Second}, store, srv.URL, 0), srv
}

func TestFetchBatchParsesSingleLocation(t *testing.T) {
	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "45.7640" {
			t.Errorf("latitude = %q, want 45.7640", q.Get("latitude"))
		}
		if q.Get("start_date") != "2026-06-01" || q.Get("end_date") != "2026-06-01" {
			t.Errorf("unexpected date range: %s..%s", q.Get("start_date"), q.Get("end_date"))
		}
		w.Write([]byte(singleDayFixture))
	})

	got, err := c.FetchBatch(context.Background(), []geo.City{lyon}, "2026-06-01", "2026-06-01")
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}

	series, ok := got["1"]
	if !ok {
		t.Fatal("no series for Lyon")
	}
	if len(series.Forecasts) != 1 {
		t.Fatalf("got %d days, want 1", len(series.Forecasts))
	}

	day := series.Forecasts[0]
	if day.Date != "2026-06-01" {
		t.Errorf("Date = %q, want 2026-06-01", day.Date)
	}
	if day.Temperature != 15 {
		t.Errorf("Temperature = %v, want 15", day.Temperature)
	}
	if day.MinTemperature != 10 || day.MaxTemperature != 20 {
		t.Errorf("min/max = %v/%v, want 10/20", day.MinTemperature, day.MaxTemperature)
	}
	if day.Condition != weather.ConditionClear {
		t.Errorf("Condition = %q, want clear", day.Condition)
	}
	if series.AverageTemperature != 15 {
		t.Errorf("AverageTemperature = %v, want 15", series.AverageTemperature)
	}

	if len(day.HourlyData) != 2 {
		t.Fatalf("got %d hourly samples, want 2", len(day.HourlyData))
	}
	if day.HourlyData[0].Hour != 8 || day.HourlyData[0].Condition != weather.ConditionClear {
		t.Errorf("first sample = %+v, want hour 8 clear", day.HourlyData[0])
	}
	if day.HourlyData[1].Hour != 14 || day.HourlyData[1].Condition != weather.ConditionRain {
		t.Errorf("second sample = %+v, want hour 14 rain", day.HourlyData[1])
	}
}

func TestFetchBatchMultipleLocations(t *testing.T) {
	// Second location has no usable daily data and must be absent.
	batch := `[` + singleDayFixture + `, {"daily": {"time": [], "temperature_2m_max": [], "temperature_2m_min": [], "weathercode": []}}]`

	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "45.7640,48.8566" {
			t.Errorf("latitude = %q, want both coordinates comma-joined", q.Get("latitude"))
		}
		w.Write([]byte(batch))
	})

	got, err := c.FetchBatch(context.Background(), []geo.City{lyon, paris}, "2026-06-01", "2026-06-01")
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}

	if _, ok := got["1"]; !ok {
		t.Error("expected series for Lyon")
	}
	if _, ok := got["2"]; ok {
		t.Error("Paris has no data and should be absent, not present")
	}
}

func TestFetchBatchDropsImplausibleDays(t *testing.T) {
	fixture := `{
	  "daily": {
	    "time": ["2026-06-01", "2026-06-02", "2026-06-03"],
	    "temperature_2m_max": [20, 99, null],
	    "temperature_2m_min": [10, 5, 4],
	    "weathercode": [0, 0, 0]
	  },
	  "hourly": {"time": [], "temperature_2m": [], "weathercode": []}
	}`

	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixture))
	})

	got, err := c.FetchBatch(context.Background(), []geo.City{lyon}, "2026-06-01", "2026-06-03")
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}

	series := got["1"]
	if len(series.Forecasts) != 1 {
		t.Fatalf("got %d days, want 1 (implausible and null days dropped)", len(series.Forecasts))
	}
	if series.Forecasts[0].Date != "2026-06-01" {
		t.Errorf("surviving day = %q, want 2026-06-01", series.Forecasts[0].Date)
	}
}

func TestFetchBatchUsesCache(t *testing.T) {
	var calls int32
	store := cache.NewMemoryStore(time.Hour, time.Hour)

	c, _ := newTestClient(t, store, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(singleDayFixture))
	})

	ctx := context.Background()
	if _, err := c.FetchBatch(ctx, []geo.City{lyon}, "2026-06-01", "2026-06-01"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	got, err := c.FetchBatch(ctx, []geo.City{lyon}, "2026-06-01", "2026-06-01")
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("made %d upstream calls, want 1", calls)
	}
	if series, ok := got["1"]; !ok || len(series.Forecasts) != 1 {
		t.Errorf("cached series malformed: %+v", got)
	}
}

func TestFetchBatchUpstreamDown(t *testing.T) {
	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchBatch(context.Background(), []geo.City{lyon}, "2026-06-01", "2026-06-01")
	if err == nil {
		t.Fatal("expected an error when the forecast backend is down")
	}
}

func TestParseDaysInvariant(t *testing.T) {
	fixture := openMeteoResponse{}
	fixture.Daily.Time = []string{"2026-06-01", "2026-06-02"}
	maxes := []float64{21.5, 30}
	mins := []float64{11.5, 18}
	for i := range maxes {
		fixture.Daily.Temperature2mMax = append(fixture.Daily.Temperature2mMax, &maxes[i])
		fixture.Daily.Temperature2mMin = append(fixture.Daily.Temperature2mMin, &mins[i])
	}
	fixture.Daily.WeatherCode = []int{3, 73}

	days := parseDays(fixture)
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}

	for _, day := range days {
		if day.MinTemperature > day.Temperature || day.Temperature > day.MaxTemperature {
			t.Errorf("day %s violates min <= mean <= max: %+v", day.Date, day)
		}
	}
	if days[0].Condition != weather.ConditionPartlyCloudy {
		t.Errorf("day 1 condition = %q, want partly_cloudy", days[0].Condition)
	}
	if days[1].Condition != weather.ConditionSnow {
		t.Errorf("day 2 condition = %q, want snow", days[1].Condition)
	}
}
