package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"building-atlas/internal/models"
	"building-atlas/internal/normalize"
)

func downtownBounds() models.Bounds {
	return models.Bounds{LatMin: 51.042, LngMin: -114.075, LatMax: 51.048, LngMax: -114.065}
}

// sodaServer serves canned pages keyed by offset, mimicking the portal's
// offset pagination.
func sodaServer(t *testing.T, pages map[int][]normalize.Raw) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("$offset"))
		page, ok := pages[offset]
		if !ok {
			page = []normalize.Raw{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}))
}

func fullPage(prefix string, n int) []normalize.Raw {
	page := make([]normalize.Raw, n)
	for i := range page {
		page[i] = normalize.Raw{
			"permitnum": fmt.Sprintf("%s-%d", prefix, i),
			"latitude":  "51.0447",
			"longitude": "-114.0719",
		}
	}
	return page
}

func TestFetchAllPagination(t *testing.T) {
	server := sodaServer(t, map[int][]normalize.Raw{
		0:    fullPage("p1", sodaPageSize),
		1000: fullPage("p2", 3),
	})
	defer server.Close()

	client := NewSODAClient(server.URL)
	raws, err := client.FetchAll(context.Background(), "test-data", nil, 2000)
	require.NoError(t, err)
	// Full first page, short second page, then stop.
	assert.Len(t, raws, sodaPageSize+3)
}

func TestFetchAllCapsRecords(t *testing.T) {
	server := sodaServer(t, map[int][]normalize.Raw{
		0: fullPage("p1", sodaPageSize),
	})
	defer server.Close()

	client := NewSODAClient(server.URL)
	raws, err := client.FetchAll(context.Background(), "test-data", nil, 500)
	require.NoError(t, err)
	assert.Len(t, raws, 500)
}

func TestFetchAllUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewSODAClient(server.URL)
	_, err := client.FetchAll(context.Background(), "test-data", nil, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPermitsAdapterBoundsFilter(t *testing.T) {
	var gotWhere string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWhere = r.URL.Query().Get("$where")
		page := []normalize.Raw{
			{"permitnum": "in", "latitude": "51.0447", "longitude": "-114.0719"},
			{"permitnum": "out", "latitude": "51.2000", "longitude": "-114.0719"},
			{"permitnum": "unlocated", "originaladdress": "101 9 Ave SW"},
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	adapter := NewPermitsAdapter(NewSODAClient(server.URL))
	assert.Equal(t, "building_permits", adapter.Name())

	buildings, err := adapter.Fetch(context.Background(), downtownBounds(), 100)
	require.NoError(t, err)

	// The spatial clause went upstream, and the out-of-bounds record the
	// upstream returned anyway was dropped downstream. Unlocated records
	// survive for later reconciliation.
	assert.Contains(t, gotWhere, "latitude >= 51.042")
	require.Len(t, buildings, 2)
	assert.Equal(t, "permit_in", buildings[0].SourceID)
	assert.Equal(t, "permit_unlocated", buildings[1].SourceID)
}

func TestFootprintsAdapterSpatialQuery(t *testing.T) {
	var gotWhere string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWhere = r.URL.Query().Get("$where")
		json.NewEncoder(w).Encode([]normalize.Raw{})
	}))
	defer server.Close()

	adapter := NewFootprintsAdapter(NewSODAClient(server.URL))
	_, err := adapter.Fetch(context.Background(), downtownBounds(), 100)
	require.NoError(t, err)

	// Geometry datasets filter with within_box, NW corner first.
	assert.Equal(t, "within_box(the_geom, 51.048, -114.075, 51.042, -114.065)", gotWhere)
}

func TestBuildings3DAdapterDerivesHeight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]normalize.Raw{
			{
				"struct_id":      "1073741",
				"grd_elev_min_z": "1045.2",
				"rooftop_elev_z": "1105.2",
				"latitude":       "51.0443",
				"longitude":      "-114.0731",
			},
		})
	}))
	defer server.Close()

	adapter := NewBuildings3DAdapter(NewSODAClient(server.URL))
	buildings, err := adapter.Fetch(context.Background(), models.Bounds{}, 100)
	require.NoError(t, err)

	require.Len(t, buildings, 1)
	assert.Equal(t, "struct_1073741", buildings[0].SourceID)
	require.NotNil(t, buildings[0].Height)
	assert.InDelta(t, 60.0, *buildings[0].Height, 1e-9)
}

func TestZoningSourceFetchRefs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]normalize.Raw{
			{
				"lu_code": "CC-X",
				"multipolygon": map[string]interface{}{
					"type": "Polygon",
					"coordinates": []interface{}{[]interface{}{
						[]interface{}{-114.0720, 51.0446},
						[]interface{}{-114.0718, 51.0446},
						[]interface{}{-114.0718, 51.0448},
						[]interface{}{-114.0720, 51.0448},
					}},
				},
			},
			{"label": "RC-G"}, // no geometry, dropped
		})
	}))
	defer server.Close()

	zoning := NewZoningSource(NewSODAClient(server.URL))
	refs, err := zoning.FetchRefs(context.Background(), downtownBounds(), 100)
	require.NoError(t, err)

	require.Len(t, refs, 1)
	assert.Equal(t, "CC-X", refs[0].Code)
	assert.InDelta(t, 51.0447, refs[0].Latitude, 1e-9)
	assert.InDelta(t, -114.0719, refs[0].Longitude, 1e-9)
}

func TestSampleAdapter(t *testing.T) {
	adapter := NewSampleAdapter()
	assert.Equal(t, "sample", adapter.Name())

	buildings, err := adapter.Fetch(context.Background(), downtownBounds(), 0)
	require.NoError(t, err)
	require.Len(t, buildings, 10)

	for _, b := range buildings {
		assert.True(t, b.HasLocation(), "sample record %s should be located", b.SourceID)
		assert.NotNil(t, b.Address)
		assert.NotNil(t, b.AssessedValue)
		assert.NotNil(t, b.Zoning)
	}

	// The first record carries a footprint from its embedded geometry.
	assert.NotEmpty(t, buildings[0].Footprint)

	// A window away from downtown excludes everything.
	elsewhere := models.Bounds{LatMin: 51.1, LngMin: -114.2, LatMax: 51.2, LngMax: -114.1}
	buildings, err = adapter.Fetch(context.Background(), elsewhere, 0)
	require.NoError(t, err)
	assert.Empty(t, buildings)

	// The limit caps the result.
	buildings, err = adapter.Fetch(context.Background(), downtownBounds(), 3)
	require.NoError(t, err)
	assert.Len(t, buildings, 3)
}
