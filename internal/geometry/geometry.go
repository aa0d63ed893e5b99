// Package geometry converts the heterogeneous geometry shapes found in
// upstream records (GeoJSON, OSM geometry arrays, projected coordinate
// pairs) into a single centroid plus an optional footprint ring.
//
// Extraction fails soft: malformed input yields ok=false, never a panic
// or an error that aborts a batch.
package geometry

import (
	"github.com/paulmach/orb"
)

// minHeight is the floor applied to any derived building height, in
// meters. Heights below it are implausible for a standing structure.
const minHeight = 3.0

// Extract computes a (lat, lng) centroid and an optional footprint from
// any supported geometry representation:
//
//   - GeoJSON objects: {"type": "Point"|"Polygon"|"MultiPolygon", "coordinates": ...}
//   - OSM way/relation geometry: [{"lat": .., "lon": ..}, ...] or [[lng, lat], ...]
//
// The centroid is the arithmetic mean of all vertices, not an
// area-weighted centroid. Vertex pairs whose magnitude suggests projected
// coordinates are run through the region's linear approximation.
func Extract(raw interface{}, region Region) (lat, lng float64, footprint orb.Ring, ok bool) {
	switch g := raw.(type) {
	case map[string]interface{}:
		return extractGeoJSON(g, region)
	case []interface{}:
		return extractPointList(g, region)
	}
	return 0, 0, nil, false
}

func extractGeoJSON(g map[string]interface{}, region Region) (float64, float64, orb.Ring, bool) {
	coords, found := g["coordinates"]
	if !found {
		return 0, 0, nil, false
	}

	typ, _ := g["type"].(string)
	switch typ {
	case "Point":
		pair, valid := asPair(coords)
		if !valid {
			return 0, 0, nil, false
		}
		// GeoJSON order is [lng, lat].
		return pair[1], pair[0], orb.Ring{pair}, true

	case "Polygon", "MultiPolygon":
		points := flattenPairs(coords)
		if len(points) == 0 {
			return 0, 0, nil, false
		}
		return centroid(points, outerRing(coords), region)
	}

	return 0, 0, nil, false
}

// extractPointList handles OSM way/relation geometry: a list of
// {"lat": .., "lon": ..} objects, or fallback [lng, lat] arrays.
func extractPointList(list []interface{}, region Region) (float64, float64, orb.Ring, bool) {
	var points []orb.Point
	for _, item := range list {
		switch p := item.(type) {
		case map[string]interface{}:
			plat, latOK := asFloat(p["lat"])
			plng, lngOK := asFloat(p["lon"])
			if latOK && lngOK {
				points = append(points, orb.Point{plng, plat})
			}
		default:
			if pair, valid := asPair(item); valid {
				points = append(points, pair)
			}
		}
	}

	if len(points) == 0 {
		return 0, 0, nil, false
	}
	return centroid(points, orb.Ring(points), region)
}

// centroid averages the vertex set and resolves projected coordinates.
// Large-magnitude averages cannot be lat/lng, so they are converted
// through the region approximation (and the footprint is dropped, since
// its vertices are in the projected system).
func centroid(points []orb.Point, footprint orb.Ring, region Region) (float64, float64, orb.Ring, bool) {
	var sumLng, sumLat float64
	for _, p := range points {
		sumLng += p[0]
		sumLat += p[1]
	}
	avgLng := sumLng / float64(len(points))
	avgLat := sumLat / float64(len(points))

	if abs(avgLng) > 1000 || abs(avgLat) > 1000 {
		lat, lng, ok := region.ProjectedToLatLng(avgLng, avgLat)
		if !ok {
			return 0, 0, nil, false
		}
		return lat, lng, nil, true
	}

	return avgLat, avgLng, footprint, true
}

// flattenPairs recursively collects every [lng, lat] pair from an
// arbitrarily nested GeoJSON coordinate array.
func flattenPairs(coords interface{}) []orb.Point {
	var points []orb.Point

	var walk func(node interface{})
	walk = func(node interface{}) {
		list, isList := node.([]interface{})
		if !isList {
			return
		}
		if pair, valid := asPair(node); valid {
			points = append(points, pair)
			return
		}
		for _, item := range list {
			walk(item)
		}
	}
	walk(coords)

	return points
}

// outerRing returns the outermost ring of a Polygon or MultiPolygon
// coordinate array: the first nesting level whose elements are pairs.
func outerRing(coords interface{}) orb.Ring {
	node := coords
	for depth := 0; depth < 4; depth++ {
		list, isList := node.([]interface{})
		if !isList || len(list) == 0 {
			return nil
		}
		if _, valid := asPair(list[0]); valid {
			var ring orb.Ring
			for _, item := range list {
				if pair, ok := asPair(item); ok {
					ring = append(ring, pair)
				}
			}
			return ring
		}
		node = list[0]
	}
	return nil
}

// HeightFromElevation derives building height as rooftop minus ground
// elevation, clamped to the minimum plausible height. Returns nil if
// either elevation is missing.
func HeightFromElevation(ground, rooftop *float64) *float64 {
	if ground == nil || rooftop == nil {
		return nil
	}
	h := *rooftop - *ground
	if h < minHeight {
		h = minHeight
	}
	return &h
}

// ClampHeight enforces the minimum plausible building height. Zero and
// negative heights are treated as absent.
func ClampHeight(height *float64) *float64 {
	if height == nil || *height <= 0 {
		return nil
	}
	if *height < minHeight {
		h := minHeight
		return &h
	}
	return height
}

func asPair(node interface{}) (orb.Point, bool) {
	list, isList := node.([]interface{})
	if !isList || len(list) != 2 {
		return orb.Point{}, false
	}
	x, xOK := asFloat(list[0])
	y, yOK := asFloat(list[1])
	if !xOK || !yOK {
		return orb.Point{}, false
	}
	return orb.Point{x, y}, true
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
