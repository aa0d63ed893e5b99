// Package normalize projects source-specific raw records onto the
// canonical building shape. Each upstream uses different key names and
// units; the mapping tables here are the only place raw keys appear.
package normalize

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"building-atlas/internal/geometry"
	"building-atlas/internal/models"
)

// Kind identifies which upstream produced a raw record, selecting the
// key-preference tables and the id prefix.
type Kind string

const (
	KindPermits     Kind = "building_permits"
	KindAssessments Kind = "property_assessments"
	Kind3D          Kind = "3d_buildings"
	KindFootprints  Kind = "footprints"
	KindOSM         Kind = "openstreetmap"
	KindSample      Kind = "sample"
)

// FloorHeight is the average floor height assumption, in meters, used
// consistently across the whole pipeline.
const FloorHeight = 3.5

// idPrefixes qualifies identifiers per source so merged output never
// collides across upstreams.
var idPrefixes = map[Kind]string{
	KindPermits:     "permit",
	KindAssessments: "assessment",
	Kind3D:          "struct",
	KindFootprints:  "footprint",
	KindOSM:         "osm",
	KindSample:      "sample",
}

// idKeys is the fallback identifier chain: explicit id field, then object
// id variants. Records matching none get a synthetic hash id.
var idKeys = map[Kind][]string{
	KindPermits:     {"permitnum", "permit_number", "permit_id", "id"},
	KindAssessments: {"roll_number", "parcel_id", "id"},
	Kind3D:          {"struct_id", "objectid", "id"},
	KindFootprints:  {"building_id", "objectid", "struct_id", "id"},
	KindOSM:         {"id"},
	KindSample:      {"building_id", "id"},
}

// DeriveID produces the source-qualified identifier for a raw record. The
// synthetic fallback hashes the record's canonical JSON so the same
// payload always derives the same id.
func DeriveID(raw Raw, kind Kind) string {
	prefix := idPrefixes[kind]
	if prefix == "" {
		prefix = string(kind)
	}

	for _, key := range idKeys[kind] {
		if v, ok := raw[key]; ok && v != nil {
			if s := String(v); s != nil {
				return fmt.Sprintf("%s_%s", prefix, *s)
			}
			if f := Float(v); f != nil {
				return fmt.Sprintf("%s_%d", prefix, int64(*f))
			}
		}
	}

	return fmt.Sprintf("%s_%x", prefix, hashRaw(raw))
}

func hashRaw(raw Raw) uint64 {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		v, _ := json.Marshal(raw[k])
		h.Write([]byte(k))
		h.Write(v)
	}
	return h.Sum64()
}

// Record maps a raw upstream record onto a partial canonical building.
// Unknown fields stay nil; nothing here raises on malformed values.
func Record(raw Raw, kind Kind) models.Building {
	b := models.Building{
		SourceID: DeriveID(raw, kind),
		Source:   string(kind),
	}

	switch kind {
	case KindOSM:
		normalizeOSM(raw, &b)
	case KindPermits:
		normalizePermit(raw, &b)
	case KindAssessments:
		normalizeAssessment(raw, &b)
	case Kind3D:
		normalize3D(raw, &b)
	case KindFootprints:
		normalizeFootprint(raw, &b)
	default:
		normalizeGeneric(raw, &b)
	}

	fillLocation(raw, &b)
	fillCommon(raw, &b)

	b.Height = geometry.ClampHeight(b.Height)
	if b.Floors == nil && b.Height != nil {
		f := FloorsFromHeight(*b.Height)
		b.Floors = &f
	}
	if b.LandUse == nil {
		b.LandUse = b.BuildingType
	}

	return b
}

func normalizePermit(raw Raw, b *models.Building) {
	b.Address = raw.firstString("originaladdress", "address", "property_address", "civic_address", "site_address")
	b.BuildingType = normalizedType(raw.firstString("permitclassmapped", "permitclass", "permit_type", "work_type"))
	b.AssessedValue = raw.firstFloat("estprojectcost", "construction_value", "project_value", "estimated_value")
	b.ConstructionYear = yearFrom(raw.firstString("completeddate", "issueddate", "applieddate", "permit_date"))

	// Height estimated from project cost per square foot; only a rough
	// proxy, bounded to a plausible window.
	cost := Float(raw["estprojectcost"])
	sqft := Float(raw["totalsqft"])
	if cost != nil && sqft != nil && *sqft > 0 {
		h := *cost / *sqft / 100
		if h < 10 {
			h = 10
		}
		if h > 200 {
			h = 200
		}
		b.Height = &h
	}
}

func normalizeAssessment(raw Raw, b *models.Building) {
	b.Address = raw.firstString("address", "property_address", "civic_address", "full_address")
	b.AssessedValue = raw.firstFloat("assessed_value", "total_assessed_value", "current_assessed_value", "property_value", "market_value", "assessment_value")
	b.Zoning = raw.firstString("land_use_designation")
	b.BuildingType = normalizedType(raw.firstString("assessment_class_description"))
	b.ConstructionYear = raw.firstInt("year_built", "construction_year", "year_constructed")
}

func normalize3D(raw Raw, b *models.Building) {
	b.BuildingType = normalizedType(raw.firstString("stage"))
	b.Height = geometry.HeightFromElevation(Float(raw["grd_elev_min_z"]), Float(raw["rooftop_elev_z"]))
}

func normalizeFootprint(raw Raw, b *models.Building) {
	b.BuildingType = normalizedType(raw.firstString("bldg_code_desc"))
}

func normalizeGeneric(raw Raw, b *models.Building) {
	b.Address = raw.firstString("address", "full_address", "street_address", "civic_address")
	b.Height = raw.firstFloat("height", "max_height")
	b.Floors = raw.firstInt("floors", "num_floors")
	b.BuildingType = normalizedType(raw.firstString("building_type", "building_use", "use_type", "land_use"))
	b.Zoning = raw.firstString("zoning", "zone_class", "zone_code")
	b.AssessedValue = raw.firstFloat("assessed_value", "total_assessed_value")
	b.LandUse = raw.firstString("land_use", "use_description")
	b.ConstructionYear = raw.firstInt("construction_year", "year_built")
}

// normalizeOSM maps Overpass tags. The adapter flattens element tags into
// the raw map before calling in.
func normalizeOSM(raw Raw, b *models.Building) {
	typ := raw.firstString("building")
	if typ != nil && *typ == "yes" {
		typ = raw.firstString("building:use")
	}
	b.BuildingType = normalizedType(typ)

	if h := raw.firstString("height"); h != nil {
		cleaned := strings.ReplaceAll(strings.ReplaceAll(*h, "m", ""), " ", "")
		b.Height = Float(cleaned)
	}
	if b.Height == nil {
		b.Height = Float(raw["height"])
	}

	b.Floors = raw.firstInt("building:levels")
	if b.Height == nil && b.Floors != nil {
		h := float64(*b.Floors) * FloorHeight
		b.Height = &h
	}

	for _, key := range []string{"start_date", "construction_start", "year_built", "built"} {
		if y := yearFrom(String(raw[key])); y != nil {
			b.ConstructionYear = y
			break
		}
	}

	if z := raw.firstString("landuse", "zoning"); z != nil {
		b.Zoning = z
	} else if amenity := raw.firstString("amenity"); amenity != nil {
		z := "amenity:" + *amenity
		b.Zoning = &z
	}

	b.LandUse = raw.firstString("landuse")
	b.Address = osmAddress(raw)
}

func osmAddress(raw Raw) *string {
	if full := raw.firstString("addr:full"); full != nil {
		return full
	}

	var parts []string
	if num := raw.firstString("addr:housenumber"); num != nil {
		parts = append(parts, *num)
	}
	if street := raw.firstString("addr:street"); street != nil {
		parts = append(parts, *street)
	} else if name := raw.firstString("name"); name != nil && len(parts) == 0 {
		parts = append(parts, "near "+*name)
	}

	if len(parts) == 0 {
		return nil
	}
	addr := strings.Join(parts, " ")
	return &addr
}

// fillLocation resolves coordinates in preference order: direct lat/lng
// keys, projected x/y pairs, then any embedded geometry object.
func fillLocation(raw Raw, b *models.Building) {
	if !b.HasLocation() {
		lat := raw.firstFloat("latitude", "lat")
		lng := raw.firstFloat("longitude", "lng", "lon")
		if lat != nil && lng != nil {
			b.Latitude, b.Longitude = lat, lng
		}
	}

	if !b.HasLocation() {
		x := Float(raw["x_coord"])
		y := Float(raw["y_coord"])
		if x != nil && y != nil {
			if lat, lng, ok := geometry.Calgary.ProjectedToLatLng(*x, *y); ok {
				b.Latitude, b.Longitude = &lat, &lng
			}
		}
	}

	for _, key := range []string{"geometry", "the_geom", "multipolygon", "polygon", "point"} {
		geom, ok := raw[key]
		if !ok || geom == nil {
			continue
		}
		lat, lng, footprint, ok := geometry.Extract(geom, geometry.Calgary)
		if !ok {
			continue
		}
		if !b.HasLocation() {
			b.Latitude, b.Longitude = &lat, &lng
		}
		if len(b.Footprint) == 0 {
			b.Footprint = footprint
		}
		break
	}
}

// fillCommon applies the shared fallbacks after source-specific mapping.
func fillCommon(raw Raw, b *models.Building) {
	if b.Address == nil {
		b.Address = raw.firstString("address", "full_address", "street_address", "civic_address")
	}
	if b.Height == nil {
		b.Height = raw.firstFloat("height", "max_height")
	}
	if b.Floors == nil {
		b.Floors = raw.firstInt("floors", "num_floors")
	}
	if b.BuildingType == nil {
		b.BuildingType = normalizedType(raw.firstString("building_type", "building_use", "use_type"))
	}
	if b.Zoning == nil {
		b.Zoning = raw.firstString("zoning", "zone_class", "zone_code")
	}
	if b.AssessedValue == nil {
		b.AssessedValue = raw.firstFloat("assessed_value")
	}
	if b.LandUse == nil {
		b.LandUse = raw.firstString("land_use", "use_description")
	}
	if b.ConstructionYear == nil {
		b.ConstructionYear = raw.firstInt("construction_year", "year_built")
	}
}

// FloorsFromHeight estimates floor count from height using the fixed
// average floor-height assumption.
func FloorsFromHeight(height float64) int {
	floors := int(height / FloorHeight)
	if floors < 1 {
		floors = 1
	}
	return floors
}
