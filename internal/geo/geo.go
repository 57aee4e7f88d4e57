package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius used by the haversine formula
const EarthRadiusMeters = 6371000.0

var ErrOutsideFence = errors.New("outside the allowed area")

type Point struct {
	Lat float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Lon float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Fence is a circular allowed area
type Fence struct {
	Center       Point
	RadiusMeters float64
}

// Check reports whether p lies inside the fence (boundary included) and how far it is from
// the center.
func (f Fence) Check(p Point) (bool, float64) {
	d := Distance(f.Center, p)
	return d <= f.RadiusMeters, d
}

// Require returns ErrOutsideFence, with the distance, when p is outside.
func (f Fence) Require(p Point) error {
	inside, d := f.Check(p)
	if !inside {
		return fmt.Errorf("%w: you are %.0fm away, must be within %.0fm", ErrOutsideFence, d, f.RadiusMeters)
	}
	return nil
}
