package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/fairskies/destination-search/internal/cache"
	"github.com/fairskies/destination-search/internal/geo"
	"github.com/fairskies/destination-search/internal/metrics"
)

// ErrUnavailable is returned when every Overpass endpoint attempt has been
// exhausted and no cached candidates exist for the query.
var ErrUnavailable = errors.New("city discovery unavailable")

// DefaultEndpoints are the public Overpass mirrors, tried in order.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
}

// BackoffConfig controls retry behaviour against a single endpoint.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client discovers populated places around a center via an Overpass-style
// API, with sequential failover across mirrors, exponential backoff, a
// circuit breaker per mirror, and a TTL cache keyed by rounded
// center+radius.
type Client struct {
	endpoints  []string
	httpClient *http.Client
	cache      cache.Store
	backoff    BackoffConfig
	breakers   map[string]*gobreaker.CircuitBreaker

	minCandidates int
	maxRadiusKm   float64
}

// NewClient creates a discovery Client. Any nil/zero option falls back to
// a default: public mirrors, 3 retries from 500ms capped at 5s, a minimum
// of 20 candidates before radius expansion stops, and a 500km radius cap.
func NewClient(httpClient *http.Client, store cache.Store, endpoints []string, minCandidates int, maxRadiusKm float64) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 35 * time.Second}
	}
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	if minCandidates <= 0 {
		minCandidates = 20
	}
	if maxRadiusKm <= 0 {
		maxRadiusKm = 500
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker, len(endpoints))
	for _, ep := range endpoints {
		breakers[ep] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        ep,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
	}

	return &Client{
		endpoints:  endpoints,
		httpClient: httpClient,
		cache:      store,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		breakers:      breakers,
		minCandidates: minCandidates,
		maxRadiusKm:   maxRadiusKm,
	}
}

// FindNearby returns populated places within radiusKm of the center,
// sorted by distance. The radius is expanded by 1.5x steps, capped at
// min(3x requested, maxRadiusKm), until a minimum candidate count is
// reached, so sparse regions still produce a useful result set.
func (c *Client) FindNearby(ctx context.Context, lat, lon, radiusKm float64) ([]geo.City, error) {
	radius := radiusKm
	maxRadius := math.Min(radiusKm*3, c.maxRadiusKm)

	var cities []geo.City
	for {
		found, err := c.citiesWithin(ctx, lat, lon, radius)
		if err != nil {
			if len(cities) > 0 {
				// A previous, narrower pass already succeeded.
				return cities, nil
			}
			return nil, err
		}
		cities = found

		if len(cities) >= c.minCandidates || radius >= maxRadius {
			return cities, nil
		}

		radius = math.Min(radius*1.5, maxRadius)
		log.Printf("discovery: expanding search radius to %.0fkm (found %d cities)", radius, len(cities))
	}
}

func (c *Client) citiesWithin(ctx context.Context, lat, lon, radiusKm float64) ([]geo.City, error) {
	cacheKey := fmt.Sprintf("cities_%.2f_%.2f_%d", lat, lon, int(math.Round(radiusKm)))

	if c.cache != nil {
		if payload, fresh, ok := c.cache.Get(ctx, cacheKey); ok && fresh {
			var cached []geo.City
			if err := json.Unmarshal(payload, &cached); err == nil {
				metrics.RecordCacheLookup("cities", "hit")
				return cached, nil
			}
		}
	}
	metrics.RecordCacheLookup("cities", "miss")

	query := buildPlacesQuery(geo.BoxAround(lat, lon, radiusKm))

	body, err := c.post(ctx, query)
	if err != nil {
		// Total backend failure: fall back to a stale cache entry if one
		// is still retained.
		if c.cache != nil {
			if payload, _, ok := c.cache.Get(ctx, cacheKey); ok {
				var cached []geo.City
				if jsonErr := json.Unmarshal(payload, &cached); jsonErr == nil {
					metrics.RecordCacheLookup("cities", "stale")
					log.Printf("discovery: all endpoints failed, serving stale cache for %s: %v", cacheKey, err)
					return cached, nil
				}
			}
		}
		metrics.CollaboratorFailures.WithLabelValues("discovery").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cities, err := parsePlaces(body, lat, lon, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if c.cache != nil && len(cities) > 0 {
		if payload, err := json.Marshal(cities); err == nil {
			if err := c.cache.Set(ctx, cacheKey, payload); err != nil {
				log.Printf("discovery: cache write failed for %s: %v", cacheKey, err)
			}
		}
	}

	return cities, nil
}

// post runs the Overpass query against each endpoint in order, retrying a
// single endpoint with exponential backoff before failing over to the
// next. The first success wins; the last error is reported when all are
// exhausted.
func (c *Client) post(ctx context.Context, query string) ([]byte, error) {
	var lastErr error

	for _, endpoint := range c.endpoints {
		body, err := c.postWithRetries(ctx, endpoint, query)
		if err == nil {
			return body, nil
		}
		lastErr = err
		log.Printf("discovery: endpoint %s failed: %v", endpoint, err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no endpoints configured")
	}
	return nil, lastErr
}

func (c *Client) postWithRetries(ctx context.Context, endpoint, query string) ([]byte, error) {
	cb := c.breakers[endpoint]

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := cb.Execute(func() (interface{}, error) {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(query))
			if reqErr != nil {
				return nil, reqErr
			}
			req.Header.Set("Content-Type", "text/plain")

			resp, doErr := c.httpClient.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, errors.New("rate limited")
			}
			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("server error: %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			}

			return io.ReadAll(resp.Body)
		})
		if err == nil {
			return result.([]byte), nil
		}

		// An open breaker means this endpoint is known-bad; fail over
		// immediately instead of burning the retry budget.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, err
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// buildPlacesQuery produces an Overpass QL query for populated places
// (city/town/village nodes and ways) inside the bounding box.
func buildPlacesQuery(box geo.BoundingBox) string {
	bbox := fmt.Sprintf("(%f,%f,%f,%f)", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)

	var sb strings.Builder
	sb.WriteString("[out:json][timeout:30];\n(\n")
	for _, kind := range []string{"node", "way"} {
		for _, place := range []string{"city", "town", "village"} {
			fmt.Fprintf(&sb, "  %s[\"place\"=\"%s\"]%s;\n", kind, place, bbox)
		}
	}
	sb.WriteString(");\nout center;\n")
	return sb.String()
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func parsePlaces(body []byte, centerLat, centerLon, radiusKm float64) ([]geo.City, error) {
	var payload struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	cities := make([]geo.City, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		place := el.Tags["place"]
		if place != "city" && place != "town" && place != "village" {
			continue
		}

		name := el.Tags["name"]
		if name == "" {
			name = el.Tags["name:fr"]
		}
		if name == "" {
			continue
		}

		var lat, lon float64
		switch {
		case el.Type == "node":
			lat, lon = el.Lat, el.Lon
		case el.Center != nil:
			lat, lon = el.Center.Lat, el.Center.Lon
		default:
			continue
		}

		distance := geo.Distance(centerLat, centerLon, lat, lon)
		if distance > radiusKm {
			continue
		}

		country := el.Tags["addr:country"]
		if country == "" {
			country = el.Tags["is_in:country"]
		}

		cities = append(cities, geo.City{
			ID:        fmt.Sprintf("%d", el.ID),
			Name:      name,
			Country:   country,
			Latitude:  lat,
			Longitude: lon,
			Distance:  distance,
		})
	}

	sort.Slice(cities, func(i, j int) bool {
		return cities[i].Distance < cities[j].Distance
	})

	return cities, nil
}
