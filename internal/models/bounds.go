package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Bounds is a geographic bounding box in WGS84 degrees. The wire format
// everywhere (query params, upstream filters) is lat_min,lng_min,lat_max,lng_max.
type Bounds struct {
	LatMin float64
	LngMin float64
	LatMax float64
	LngMax float64
}

// ParseBounds parses the comma-separated wire form.
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("bounds must have 4 values, got %d", len(parts))
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid bounds value %q: %w", p, err)
		}
		vals[i] = v
	}

	return Bounds{LatMin: vals[0], LngMin: vals[1], LatMax: vals[2], LngMax: vals[3]}, nil
}

// Contains reports whether the point lies within the box.
func (b Bounds) Contains(lat, lng float64) bool {
	return b.Bound().Contains(orb.Point{lng, lat})
}

// Bound converts to an orb bound (lng, lat order).
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.LngMin, b.LatMin},
		Max: orb.Point{b.LngMax, b.LatMax},
	}
}

// IsZero reports whether the box is unset.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

func (b Bounds) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.LatMin, b.LngMin, b.LatMax, b.LngMax)
}
