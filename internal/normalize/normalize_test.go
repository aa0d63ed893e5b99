package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPermit(t *testing.T) {
	raw := Raw{
		"permitnum":         "BP2023-00123",
		"originaladdress":   "101 9 Ave SW",
		"permitclassmapped": "Commercial",
		"estprojectcost":    "5000000",
		"totalsqft":         "20000",
		"completeddate":     "2015-06-01T00:00:00",
		"latitude":          "51.0455",
		"longitude":         "-114.0712",
	}

	b := Record(raw, KindPermits)

	assert.Equal(t, "permit_BP2023-00123", b.SourceID)
	assert.Equal(t, "building_permits", b.Source)
	require.NotNil(t, b.Address)
	assert.Equal(t, "101 9 Ave SW", *b.Address)
	require.NotNil(t, b.BuildingType)
	assert.Equal(t, "Commercial", *b.BuildingType)
	require.NotNil(t, b.AssessedValue)
	assert.Equal(t, 5000000.0, *b.AssessedValue)
	require.NotNil(t, b.ConstructionYear)
	assert.Equal(t, 2015, *b.ConstructionYear)

	// Cost-per-sqft height proxy: 5000000/20000/100 = 2.5, floored to 10.
	require.NotNil(t, b.Height)
	assert.Equal(t, 10.0, *b.Height)
	require.NotNil(t, b.Floors)
	assert.Equal(t, 2, *b.Floors)

	require.True(t, b.HasLocation())
	assert.InDelta(t, 51.0455, *b.Latitude, 1e-9)
	assert.InDelta(t, -114.0712, *b.Longitude, 1e-9)
}

func TestRecordAssessment(t *testing.T) {
	raw := Raw{
		"roll_number":                  "068019905",
		"address":                      "635 8 Ave SW",
		"assessed_value":               "12400000",
		"land_use_designation":         "CC-X",
		"assessment_class_description": "Non-residential office",
		"year_built":                   "1981",
	}

	b := Record(raw, KindAssessments)

	assert.Equal(t, "assessment_068019905", b.SourceID)
	require.NotNil(t, b.AssessedValue)
	assert.Equal(t, 12400000.0, *b.AssessedValue)
	require.NotNil(t, b.Zoning)
	assert.Equal(t, "CC-X", *b.Zoning)
	require.NotNil(t, b.BuildingType)
	assert.Equal(t, "Commercial", *b.BuildingType)
	require.NotNil(t, b.ConstructionYear)
	assert.Equal(t, 1981, *b.ConstructionYear)
	assert.False(t, b.HasLocation())
}

func TestRecord3DBuilding(t *testing.T) {
	raw := Raw{
		"struct_id":      "1073741",
		"stage":          "CONSTRUCTED",
		"grd_elev_min_z": "1045.2",
		"rooftop_elev_z": "1105.2",
		"latitude":       51.0443,
		"longitude":      -114.0731,
	}

	b := Record(raw, Kind3D)

	assert.Equal(t, "struct_1073741", b.SourceID)
	require.NotNil(t, b.Height)
	assert.InDelta(t, 60.0, *b.Height, 1e-9)
	require.NotNil(t, b.Floors)
	assert.Equal(t, 17, *b.Floors)
}

func TestRecordOSM(t *testing.T) {
	raw := Raw{
		"id":               float64(243598199),
		"building":         "yes",
		"building:use":     "office",
		"height":           "45 m",
		"building:levels":  "12",
		"start_date":       "1988",
		"addr:housenumber": "707",
		"addr:street":      "5 Street SW",
	}

	b := Record(raw, KindOSM)

	assert.Equal(t, "osm_243598199", b.SourceID)
	require.NotNil(t, b.BuildingType)
	assert.Equal(t, "Commercial", *b.BuildingType)
	require.NotNil(t, b.Height)
	assert.Equal(t, 45.0, *b.Height)
	require.NotNil(t, b.Floors)
	assert.Equal(t, 12, *b.Floors)
	require.NotNil(t, b.ConstructionYear)
	assert.Equal(t, 1988, *b.ConstructionYear)
	require.NotNil(t, b.Address)
	assert.Equal(t, "707 5 Street SW", *b.Address)
}

func TestRecordOSMLevelsOnlyHeight(t *testing.T) {
	raw := Raw{
		"id":              float64(1),
		"building":        "apartments",
		"building:levels": "8",
		"amenity":         "parking",
	}

	b := Record(raw, KindOSM)

	require.NotNil(t, b.BuildingType)
	assert.Equal(t, "Residential", *b.BuildingType)
	require.NotNil(t, b.Height)
	assert.Equal(t, 8*FloorHeight, *b.Height)
	require.NotNil(t, b.Zoning)
	assert.Equal(t, "amenity:parking", *b.Zoning)
}

func TestRecordFootprintGeometry(t *testing.T) {
	raw := Raw{
		"building_id":    "14705",
		"bldg_code_desc": "Warehouse",
		"polygon": map[string]interface{}{
			"type": "Polygon",
			"coordinates": []interface{}{[]interface{}{
				[]interface{}{-114.0720, 51.0446},
				[]interface{}{-114.0718, 51.0446},
				[]interface{}{-114.0718, 51.0448},
				[]interface{}{-114.0720, 51.0448},
			}},
		},
	}

	b := Record(raw, KindFootprints)

	assert.Equal(t, "footprint_14705", b.SourceID)
	require.NotNil(t, b.BuildingType)
	assert.Equal(t, "Industrial", *b.BuildingType)
	require.True(t, b.HasLocation())
	assert.InDelta(t, 51.0447, *b.Latitude, 1e-9)
	assert.Len(t, b.Footprint, 4)
}

func TestRecordProjectedCoordinates(t *testing.T) {
	raw := Raw{
		"id":      "42",
		"x_coord": -71675.0,
		"y_coord": 5656140.0,
	}

	b := Record(raw, KindSample)

	require.True(t, b.HasLocation())
	assert.InDelta(t, 51.045, *b.Latitude, 0.001)
	assert.InDelta(t, -114.07, *b.Longitude, 0.001)
}

func TestRecordLandUseMirrorsType(t *testing.T) {
	b := Record(Raw{"id": "1", "building_type": "Residential"}, KindSample)
	require.NotNil(t, b.LandUse)
	assert.Equal(t, "Residential", *b.LandUse)
}

func TestDeriveID(t *testing.T) {
	assert.Equal(t, "permit_BP1", DeriveID(Raw{"permitnum": "BP1"}, KindPermits))
	assert.Equal(t, "osm_77", DeriveID(Raw{"id": float64(77)}, KindOSM))

	// No identifier key: synthetic hash, stable for the same payload.
	raw := Raw{"address": "123 8 Ave SW", "height": 42.0}
	first := DeriveID(raw, KindFootprints)
	second := DeriveID(Raw{"height": 42.0, "address": "123 8 Ave SW"}, KindFootprints)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "footprint_")

	other := DeriveID(Raw{"address": "456 8 Ave SW", "height": 42.0}, KindFootprints)
	assert.NotEqual(t, first, other)
}

func TestNormalizeBuildingType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Unknown"},
		{"OFFICE tower", "Commercial"},
		{"retail podium", "Commercial"},
		{"hotel", "Commercial"},
		{"apartments", "Residential"},
		{"Single House", "Residential"},
		{"warehouse", "Industrial"},
		{"multi-tenant", "Mixed Use"},
		{"school", "Institutional"},
		{"parkade structure", "Parkade Structure"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBuildingType(tt.in), "input %q", tt.in)
	}
}

func TestCoercion(t *testing.T) {
	require.NotNil(t, Float("  42.5 "))
	assert.Equal(t, 42.5, *Float("  42.5 "))
	assert.Nil(t, Float("n/a"))
	assert.Nil(t, Float(nil))
	assert.Equal(t, 7.0, *Float(7))

	assert.Equal(t, 12, *Int("12"))
	assert.Equal(t, 12, *Int(12.9))
	assert.Nil(t, Int("twelve"))

	assert.Equal(t, "x", *String(" x "))
	assert.Nil(t, String("   "))
	assert.Nil(t, String(42))
}

func TestFirstPrefersEarlierKeys(t *testing.T) {
	raw := Raw{
		"address":      "preferred",
		"full_address": "fallback",
		"height":       nil,
		"max_height":   "30",
	}

	s := raw.firstString("address", "full_address")
	require.NotNil(t, s)
	assert.Equal(t, "preferred", *s)

	// Null values fall through to the next key.
	f := raw.firstFloat("height", "max_height")
	require.NotNil(t, f)
	assert.Equal(t, 30.0, *f)

	assert.Nil(t, raw.firstString("missing", "also_missing"))
}

func TestFloorsFromHeight(t *testing.T) {
	assert.Equal(t, 1, FloorsFromHeight(2))
	assert.Equal(t, 1, FloorsFromHeight(3.5))
	assert.Equal(t, 2, FloorsFromHeight(10))
	assert.Equal(t, 42, FloorsFromHeight(150))
}
