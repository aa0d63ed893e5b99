package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Building is the canonical, source-agnostic building record every
// component operates on after adapter-level conversion. Optional fields
// are pointers; nil means the source did not provide a value.
type Building struct {
	SourceID  string     `json:"building_id"`
	Source    string     `json:"data_source"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Footprint orb.Ring   `json:"footprint,omitempty"`

	Address          *string  `json:"address"`
	Height           *float64 `json:"height"` // meters
	Floors           *int     `json:"floors"`
	BuildingType     *string  `json:"building_type"`
	Zoning           *string  `json:"zoning"`
	AssessedValue    *float64 `json:"assessed_value"`
	LandUse          *string  `json:"land_use"`
	ConstructionYear *int     `json:"construction_year"`
}

// HasLocation reports whether the record can participate in spatial
// grouping.
func (b *Building) HasLocation() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// BucketKey returns the location bucket key: latitude and longitude each
// rounded to 4 decimal places (~11m grid cell). Records sharing a key are
// treated as the same physical building during reconciliation.
func (b *Building) BucketKey() (string, bool) {
	if !b.HasLocation() {
		return "", false
	}
	return fmt.Sprintf("%.4f,%.4f", *b.Latitude, *b.Longitude), true
}

// Point returns the record's centroid as an orb point (lng, lat order).
func (b *Building) Point() (orb.Point, bool) {
	if !b.HasLocation() {
		return orb.Point{}, false
	}
	return orb.Point{*b.Longitude, *b.Latitude}, true
}

// Filter is a single attribute predicate applied to buildings, as
// produced by the dashboard's filter UI.
type Filter struct {
	Attribute string `json:"attribute"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
}

// attributeValue resolves a filter attribute name to the building's
// value, or nil if the attribute is unknown or unset.
func (b *Building) attributeValue(attribute string) interface{} {
	switch attribute {
	case "address":
		if b.Address != nil {
			return *b.Address
		}
	case "height":
		if b.Height != nil {
			return *b.Height
		}
	case "floors":
		if b.Floors != nil {
			return *b.Floors
		}
	case "building_type":
		if b.BuildingType != nil {
			return *b.BuildingType
		}
	case "zoning":
		if b.Zoning != nil {
			return *b.Zoning
		}
	case "assessed_value":
		if b.AssessedValue != nil {
			return *b.AssessedValue
		}
	case "land_use":
		if b.LandUse != nil {
			return *b.LandUse
		}
	case "construction_year":
		if b.ConstructionYear != nil {
			return *b.ConstructionYear
		}
	}
	return nil
}

// MatchesFilter reports whether the building satisfies the predicate.
// Numeric comparison is attempted first; = and contains fall back to
// case-insensitive string comparison.
func (b *Building) MatchesFilter(f Filter) bool {
	if f.Attribute == "" || f.Operator == "" || f.Value == "" {
		return false
	}

	val := b.attributeValue(f.Attribute)
	if val == nil {
		return false
	}

	str := fmt.Sprintf("%v", val)
	num, numErr := strconv.ParseFloat(str, 64)
	want, wantErr := strconv.ParseFloat(f.Value, 64)
	numeric := numErr == nil && wantErr == nil

	switch f.Operator {
	case ">":
		return numeric && num > want
	case "<":
		return numeric && num < want
	case ">=":
		return numeric && num >= want
	case "<=":
		return numeric && num <= want
	case "=":
		if numeric {
			return num == want
		}
		return strings.EqualFold(str, f.Value)
	case "contains":
		return strings.Contains(strings.ToLower(str), strings.ToLower(f.Value))
	}

	return false
}

// Stats summarizes a set of buildings for the dashboard side panel.
type Stats struct {
	TotalCount       int            `json:"total_count"`
	AvgHeight        float64        `json:"avg_height"`
	AvgAssessedValue float64        `json:"avg_assessed_value"`
	BuildingTypes    map[string]int `json:"building_types"`
	ZoningTypes      map[string]int `json:"zoning_types"`
}

// ZoningRef is one entry in the zoning lookup list used during
// enrichment. Zoning districts are large, so matches are accepted at a
// generous distance.
type ZoningRef struct {
	Code      string
	Latitude  float64
	Longitude float64
}

// AssessmentRef is one entry in the assessment lookup list. Assessment
// points must match almost exactly to be trusted.
type AssessmentRef struct {
	AssessedValue float64
	Address       string
	Latitude      float64
	Longitude     float64
}

// Point returns the reference location in orb's (lng, lat) order.
func (z ZoningRef) Point() orb.Point { return orb.Point{z.Longitude, z.Latitude} }

// Point returns the reference location in orb's (lng, lat) order.
func (a AssessmentRef) Point() orb.Point { return orb.Point{a.Longitude, a.Latitude} }
