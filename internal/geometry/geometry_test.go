package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestExtractGeoJSONPoint(t *testing.T) {
	geom := map[string]interface{}{
		"type":        "Point",
		"coordinates": []interface{}{-114.0719, 51.0447},
	}

	lat, lng, footprint, ok := Extract(geom, Calgary)
	require.True(t, ok)
	assert.InDelta(t, 51.0447, lat, 1e-9)
	assert.InDelta(t, -114.0719, lng, 1e-9)
	assert.Equal(t, orb.Ring{{-114.0719, 51.0447}}, footprint)
}

func TestExtractGeoJSONPolygon(t *testing.T) {
	geom := map[string]interface{}{
		"type": "Polygon",
		"coordinates": []interface{}{[]interface{}{
			[]interface{}{-114.06, 51.04},
			[]interface{}{-114.04, 51.04},
			[]interface{}{-114.04, 51.06},
			[]interface{}{-114.06, 51.06},
		}},
	}

	lat, lng, footprint, ok := Extract(geom, Calgary)
	require.True(t, ok)
	assert.InDelta(t, 51.05, lat, 1e-9)
	assert.InDelta(t, -114.05, lng, 1e-9)
	require.Len(t, footprint, 4)
	assert.Equal(t, orb.Point{-114.06, 51.04}, footprint[0])
}

func TestExtractGeoJSONMultiPolygon(t *testing.T) {
	geom := map[string]interface{}{
		"type": "MultiPolygon",
		"coordinates": []interface{}{[]interface{}{[]interface{}{
			[]interface{}{-114.072, 51.0446},
			[]interface{}{-114.0718, 51.0446},
			[]interface{}{-114.0718, 51.0448},
			[]interface{}{-114.072, 51.0448},
		}}},
	}

	lat, lng, footprint, ok := Extract(geom, Calgary)
	require.True(t, ok)
	assert.InDelta(t, 51.0447, lat, 1e-9)
	assert.InDelta(t, -114.0719, lng, 1e-9)
	assert.Len(t, footprint, 4)
}

func TestExtractOSMGeometry(t *testing.T) {
	geom := []interface{}{
		map[string]interface{}{"lat": 51.05, "lon": -114.06},
		map[string]interface{}{"lat": 51.06, "lon": -114.08},
	}

	lat, lng, footprint, ok := Extract(geom, Calgary)
	require.True(t, ok)
	assert.InDelta(t, 51.055, lat, 1e-9)
	assert.InDelta(t, -114.07, lng, 1e-9)
	assert.Len(t, footprint, 2)
}

func TestExtractPairList(t *testing.T) {
	geom := []interface{}{
		[]interface{}{-114.06, 51.05},
		[]interface{}{-114.08, 51.06},
	}

	lat, lng, _, ok := Extract(geom, Calgary)
	require.True(t, ok)
	assert.InDelta(t, 51.055, lat, 1e-9)
	assert.InDelta(t, -114.07, lng, 1e-9)
}

func TestExtractProjectedPolygon(t *testing.T) {
	// Vertex magnitudes force the projected-coordinate path; the footprint
	// is dropped because its vertices stay in the projected system.
	geom := map[string]interface{}{
		"type": "Polygon",
		"coordinates": []interface{}{[]interface{}{
			[]interface{}{-71700.0, 5656100.0},
			[]interface{}{-71650.0, 5656100.0},
			[]interface{}{-71650.0, 5656180.0},
			[]interface{}{-71700.0, 5656180.0},
		}},
	}

	lat, lng, footprint, ok := Extract(geom, Calgary)
	require.True(t, ok)
	assert.True(t, Calgary.InBounds(lat, lng), "projected centroid should land in the region window, got %f,%f", lat, lng)
	assert.Nil(t, footprint)
}

func TestExtractMalformed(t *testing.T) {
	cases := []interface{}{
		nil,
		"not a geometry",
		map[string]interface{}{"type": "Polygon"},
		map[string]interface{}{"type": "LineString", "coordinates": []interface{}{}},
		map[string]interface{}{"type": "Point", "coordinates": []interface{}{"x", "y"}},
		[]interface{}{},
		[]interface{}{"junk"},
	}
	for _, geom := range cases {
		_, _, _, ok := Extract(geom, Calgary)
		assert.False(t, ok, "geometry %v should fail extraction", geom)
	}
}

func TestProjectedToLatLng(t *testing.T) {
	lat, lng, ok := Calgary.ProjectedToLatLng(-71675.0, 5656140.0)
	require.True(t, ok)
	assert.True(t, Calgary.InBounds(lat, lng))

	// y=0 lands far south of the window.
	_, _, ok = Calgary.ProjectedToLatLng(-71675.0, 0)
	assert.False(t, ok)
}

func TestHeightFromElevation(t *testing.T) {
	h := HeightFromElevation(fptr(1045.0), fptr(1120.5))
	require.NotNil(t, h)
	assert.InDelta(t, 75.5, *h, 1e-9)

	// Rooftop below ground clamps to the minimum plausible height.
	h = HeightFromElevation(fptr(1045.0), fptr(1040.0))
	require.NotNil(t, h)
	assert.Equal(t, 3.0, *h)

	assert.Nil(t, HeightFromElevation(nil, fptr(1120.0)))
	assert.Nil(t, HeightFromElevation(fptr(1045.0), nil))
}

func TestClampHeight(t *testing.T) {
	assert.Nil(t, ClampHeight(nil))
	assert.Nil(t, ClampHeight(fptr(0)))
	assert.Nil(t, ClampHeight(fptr(-5)))

	h := ClampHeight(fptr(1.2))
	require.NotNil(t, h)
	assert.Equal(t, 3.0, *h)

	h = ClampHeight(fptr(42.0))
	require.NotNil(t, h)
	assert.Equal(t, 42.0, *h)
}
