// Package source contains one adapter per upstream data source. Every
// adapter speaks its upstream's native query dialect, paginates
// defensively, and converts records to the canonical shape through the
// normalizer. Adapter failures never take down a fetch: the pipeline
// treats an errored adapter as an empty source.
package source

import (
	"context"

	"building-atlas/internal/models"
	"building-atlas/internal/normalize"
)

// Adapter is the contract every upstream source implements, including
// the offline sample fallback.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, bounds models.Bounds, limit int) ([]models.Building, error)
}

// convert runs raw records through the normalizer, applies the downstream
// bounding-box check for upstreams that cannot filter server-side, and
// caps the result. Records with no content are dropped; located records
// outside the requested bounds are dropped; unlocated records are kept
// and resolved later in the pipeline.
func convert(raws []normalize.Raw, kind normalize.Kind, bounds models.Bounds, limit int) []models.Building {
	buildings := make([]models.Building, 0, len(raws))

	for _, raw := range raws {
		if len(raw) == 0 {
			continue
		}

		b := normalize.Record(raw, kind)
		if b.HasLocation() && !bounds.IsZero() && !bounds.Contains(*b.Latitude, *b.Longitude) {
			continue
		}

		buildings = append(buildings, b)
		if limit > 0 && len(buildings) >= limit {
			break
		}
	}

	return buildings
}
