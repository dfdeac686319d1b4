package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// kmPerLatDegree approximates the north-south span of one degree of latitude.
const kmPerLatDegree = 111.0

// City is a populated place discovered around a search center.
// Instances are immutable once produced by the discovery layer.
type City struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Distance from the search center in kilometers.
	Distance float64 `json:"distance"`
}

// Distance returns the great-circle distance in kilometers between two
// lat/lon points (haversine).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// BoundingBox is a lat/lon rectangle, south-west to north-east.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// BoxAround returns a bounding box that covers a circle of radiusKm around
// the given center. Longitude span widens with latitude.
func BoxAround(lat, lon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerLatDegree
	lonDelta := radiusKm / (kmPerLatDegree * math.Cos(lat*math.Pi/180))

	return BoundingBox{
		MinLat: lat - latDelta,
		MinLon: lon - lonDelta,
		MaxLat: lat + latDelta,
		MaxLon: lon + lonDelta,
	}
}
