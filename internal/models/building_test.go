package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

func TestBucketKey(t *testing.T) {
	b := Building{Latitude: fptr(51.04471), Longitude: fptr(-114.07191)}
	key, ok := b.BucketKey()
	require.True(t, ok)
	assert.Equal(t, "51.0447,-114.0719", key)

	// A point ~3m away rounds to the same cell.
	near := Building{Latitude: fptr(51.04468), Longitude: fptr(-114.07194)}
	nearKey, ok := near.BucketKey()
	require.True(t, ok)
	assert.Equal(t, key, nearKey)

	far := Building{Latitude: fptr(51.0500), Longitude: fptr(-114.0800)}
	farKey, ok := far.BucketKey()
	require.True(t, ok)
	assert.NotEqual(t, key, farKey)

	unlocated := Building{Latitude: fptr(51.0447)}
	_, ok = unlocated.BucketKey()
	assert.False(t, ok)
}

func TestMatchesFilter(t *testing.T) {
	b := Building{
		Address:       sptr("123 8 Ave SW, Calgary, AB"),
		Height:        fptr(120),
		Floors:        iptr(12),
		BuildingType:  sptr("Commercial"),
		Zoning:        sptr("CC-X"),
		AssessedValue: fptr(1800000),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"height greater", Filter{"height", ">", "100"}, true},
		{"height not greater", Filter{"height", ">", "150"}, false},
		{"height gte boundary", Filter{"height", ">=", "120"}, true},
		{"value less", Filter{"assessed_value", "<", "2000000"}, true},
		{"floors lte", Filter{"floors", "<=", "12"}, true},
		{"type equals case-insensitive", Filter{"building_type", "=", "commercial"}, true},
		{"type equals mismatch", Filter{"building_type", "=", "Residential"}, false},
		{"address contains", Filter{"address", "contains", "8 ave"}, true},
		{"zoning contains", Filter{"zoning", "contains", "cc"}, true},
		{"numeric equals", Filter{"floors", "=", "12"}, true},
		{"unknown attribute", Filter{"color", "=", "red"}, false},
		{"unset attribute", Filter{"land_use", "=", "Commercial"}, false},
		{"unknown operator", Filter{"height", "!=", "120"}, false},
		{"empty filter", Filter{}, false},
		{"non-numeric comparison operator", Filter{"building_type", ">", "A"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.MatchesFilter(tt.filter))
		})
	}
}

func TestParseBounds(t *testing.T) {
	bounds, err := ParseBounds("51.042,-114.075,51.048,-114.065")
	require.NoError(t, err)
	assert.Equal(t, Bounds{LatMin: 51.042, LngMin: -114.075, LatMax: 51.048, LngMax: -114.065}, bounds)

	// Whitespace is tolerated.
	_, err = ParseBounds(" 51.042, -114.075, 51.048, -114.065 ")
	assert.NoError(t, err)

	_, err = ParseBounds("51.042,-114.075,51.048")
	assert.Error(t, err)

	_, err = ParseBounds("a,b,c,d")
	assert.Error(t, err)
}

func TestBoundsContains(t *testing.T) {
	bounds := Bounds{LatMin: 51.042, LngMin: -114.075, LatMax: 51.048, LngMax: -114.065}

	assert.True(t, bounds.Contains(51.045, -114.07))
	assert.True(t, bounds.Contains(51.042, -114.075)) // edge counts
	assert.False(t, bounds.Contains(51.05, -114.07))
	assert.False(t, bounds.Contains(51.045, -114.08))

	assert.True(t, Bounds{}.IsZero())
	assert.False(t, bounds.IsZero())
}
