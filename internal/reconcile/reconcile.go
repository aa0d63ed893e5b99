// Package reconcile merges canonical partial records from all sources
// into one record per physical building, enriches them from reference
// lookups, and guarantees completeness through the completion ladder.
package reconcile

import (
	"log"
	"sort"

	"github.com/paulmach/orb/planar"

	"building-atlas/internal/models"
)

const (
	// Zoning districts are large polygons, so a nearest-centroid match is
	// trusted out to roughly 500m.
	zoningMatchRadius = 0.005

	// Assessment points must match almost exactly (~10m) to be trusted.
	assessmentMatchRadius = 0.0001
)

// Options controls one merge pass.
type Options struct {
	// DiscardUnlocated drops records without coordinates instead of
	// carrying them through as unmatched singletons.
	DiscardUnlocated bool

	// Known is a snapshot of previously reconciled records. They seed the
	// buckets before any source is processed, so fields already known
	// keep precedence over fresh data.
	Known []models.Building
}

// Merge groups records by location bucket across all sources and merges
// colliding records field by field.
//
// Source order is merge priority: within a bucket, the earliest non-nil
// value wins per field, independent of which record contributed the other
// fields. That first-writer-wins-per-field rule is the defining policy —
// it is what lets a sparse high-priority record be backfilled by lower
// priority sources without being overwritten.
func Merge(perSource [][]models.Building, opts Options) []models.Building {
	groups := make(map[string]*models.Building)
	var order []string
	var singletons []models.Building

	absorb := func(rec models.Building) {
		if rec.SourceID == "" {
			log.Printf("reconcile: skipping record with no identifier (source %q)", rec.Source)
			return
		}

		key, ok := rec.BucketKey()
		if !ok {
			if !opts.DiscardUnlocated {
				singletons = append(singletons, rec)
			}
			return
		}

		existing, seen := groups[key]
		if !seen {
			copied := rec
			groups[key] = &copied
			order = append(order, key)
			return
		}
		fillMissing(existing, &rec)
	}

	for _, known := range opts.Known {
		absorb(known)
	}
	for _, records := range perSource {
		for _, rec := range records {
			absorb(rec)
		}
	}

	out := make([]models.Building, 0, len(order)+len(singletons))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	out = append(out, singletons...)
	return out
}

// fillMissing copies each field from src into dst only where dst has no
// value yet. Location and identity always stay with the first record in
// the bucket.
func fillMissing(dst, src *models.Building) {
	if dst.Address == nil {
		dst.Address = src.Address
	}
	if dst.Height == nil {
		dst.Height = src.Height
	}
	if dst.Floors == nil {
		dst.Floors = src.Floors
	}
	if dst.BuildingType == nil {
		dst.BuildingType = src.BuildingType
	}
	if dst.Zoning == nil {
		dst.Zoning = src.Zoning
	}
	if dst.AssessedValue == nil {
		dst.AssessedValue = src.AssessedValue
	}
	if dst.LandUse == nil {
		dst.LandUse = src.LandUse
	}
	if dst.ConstructionYear == nil {
		dst.ConstructionYear = src.ConstructionYear
	}
	if len(dst.Footprint) == 0 {
		dst.Footprint = src.Footprint
	}
}

// Enrich backfills zoning codes and assessed values from the reference
// lookup lists using nearest straight-line distance in degree space.
// Matches beyond the per-list radius are rejected: the asymmetric radii
// reflect district polygons versus exact assessment points.
func Enrich(buildings []models.Building, zoning []models.ZoningRef, assessments []models.AssessmentRef) {
	for i := range buildings {
		b := &buildings[i]
		point, ok := b.Point()
		if !ok {
			continue
		}

		if b.Zoning == nil && len(zoning) > 0 {
			best := -1
			bestDist := zoningMatchRadius
			for j, ref := range zoning {
				if d := planar.Distance(point, ref.Point()); d < bestDist {
					bestDist = d
					best = j
				}
			}
			if best >= 0 {
				code := zoning[best].Code
				b.Zoning = &code
			}
		}

		if b.AssessedValue == nil && len(assessments) > 0 {
			best := -1
			bestDist := assessmentMatchRadius
			for j, ref := range assessments {
				if d := planar.Distance(point, ref.Point()); d < bestDist {
					bestDist = d
					best = j
				}
			}
			if best >= 0 {
				ref := assessments[best]
				b.AssessedValue = &ref.AssessedValue
				if b.Address == nil && ref.Address != "" {
					addr := ref.Address
					b.Address = &addr
				}
			}
		}
	}
}

// SortByAssessedValue orders buildings by assessed value descending.
// The dashboard renders the most valuable buildings first; this ordering
// is a fixed output contract, not an incidental detail.
func SortByAssessedValue(buildings []models.Building) {
	sort.SliceStable(buildings, func(i, j int) bool {
		return value(buildings[i]) > value(buildings[j])
	})
}

func value(b models.Building) float64 {
	if b.AssessedValue == nil {
		return 0
	}
	return *b.AssessedValue
}
