package geocoding

import (
	"log"

	"github.com/kelvins/geocoder"

	"github.com/fairskies/destination-search/internal/geo"
)

// maxLookupsPerBatch bounds reverse-geocoding calls per discovery batch so
// the fill-in stays off the request hot path.
const maxLookupsPerBatch = 10

// Filler back-fills missing country names on discovered cities via
// reverse geocoding. It is best-effort and disabled without an API key;
// lookup failures leave the city untouched.
type Filler struct {
	enabled bool
}

// New creates a Filler. An empty apiKey disables it.
func New(apiKey string) *Filler {
	if apiKey == "" {
		return &Filler{}
	}
	geocoder.ApiKey = apiKey
	return &Filler{enabled: true}
}

// FillCountries resolves the country of up to maxLookupsPerBatch cities
// that are missing one, mutating the slice in place.
func (f *Filler) FillCountries(cities []geo.City) {
	if !f.enabled {
		return
	}

	lookups := 0
	for i := range cities {
		if cities[i].Country != "" {
			continue
		}
		if lookups >= maxLookupsPerBatch {
			return
		}
		lookups++

		addresses, err := geocoder.GeocodingReverse(geocoder.Location{
			Latitude:  cities[i].Latitude,
			Longitude: cities[i].Longitude,
		})
		if err != nil {
			log.Printf("geocoding: reverse lookup failed for %s: %v", cities[i].Name, err)
			continue
		}

		for _, addr := range addresses {
			if addr.Country != "" {
				cities[i].Country = addr.Country
				break
			}
		}
	}
}
