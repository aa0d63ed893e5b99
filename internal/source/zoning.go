package source

import (
	"context"
	"log"
	"net/url"

	"building-atlas/internal/geometry"
	"building-atlas/internal/models"
	"building-atlas/internal/normalize"
)

// ZoningSource fetches land-use district records. Zoning records are not
// buildings: they only feed the enrichment lookup list.
type ZoningSource struct {
	client *SODAClient
}

func NewZoningSource(client *SODAClient) *ZoningSource {
	return &ZoningSource{client: client}
}

// FetchRefs returns the zoning lookup list for the bounding box. Records
// without a code or a resolvable centroid are skipped.
func (z *ZoningSource) FetchRefs(ctx context.Context, bounds models.Bounds, limit int) ([]models.ZoningRef, error) {
	params := url.Values{}
	if !bounds.IsZero() {
		params.Set("$where", withinBoxWhere(bounds))
	}

	raws, err := z.client.FetchAll(ctx, datasetZoning, params, limit)
	if err != nil {
		return nil, err
	}

	refs := make([]models.ZoningRef, 0, len(raws))
	for _, raw := range raws {
		code := normalize.String(raw["lu_code"])
		if code == nil {
			code = normalize.String(raw["label"])
		}
		if code == nil {
			continue
		}

		geom, ok := raw["multipolygon"]
		if !ok {
			continue
		}
		lat, lng, _, ok := geometry.Extract(geom, geometry.Calgary)
		if !ok {
			continue
		}

		refs = append(refs, models.ZoningRef{Code: *code, Latitude: lat, Longitude: lng})
	}

	if len(refs) == 0 && len(raws) > 0 {
		log.Printf("zoning: %d records fetched but none had usable code and centroid", len(raws))
	}
	return refs, nil
}
