package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"building-atlas/internal/geometry"
	"building-atlas/internal/models"
	"building-atlas/internal/normalize"
)

const defaultOverpassURL = "https://overpass-api.de/api/interpreter"

// OverpassAdapter fetches building ways and relations from the OSM
// Overpass API. Community-maintained data has the richest attribute
// coverage, so this adapter runs at highest merge priority.
type OverpassAdapter struct {
	httpClient *http.Client
	baseURL    string
}

// NewOverpassAdapter creates an adapter for the given Overpass endpoint;
// empty means the public instance.
func NewOverpassAdapter(baseURL string) *OverpassAdapter {
	if baseURL == "" {
		baseURL = defaultOverpassURL
	}
	return &OverpassAdapter{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

func (a *OverpassAdapter) Name() string { return string(normalize.KindOSM) }

// Fetch queries buildings inside the bounding box. Overpass has no offset
// pagination; the element list is capped client-side instead.
func (a *OverpassAdapter) Fetch(ctx context.Context, bounds models.Bounds, limit int) ([]models.Building, error) {
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  way["building"](%g,%g,%g,%g);
  relation["building"](%g,%g,%g,%g);
);
out geom meta;`,
		bounds.LatMin, bounds.LngMin, bounds.LatMax, bounds.LngMax,
		bounds.LatMin, bounds.LngMin, bounds.LatMax, bounds.LngMax)

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "building-atlas/1.0")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("overpass returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Elements []map[string]interface{} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}

	buildings := make([]models.Building, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		if limit > 0 && len(buildings) >= limit {
			break
		}

		b, ok := a.convertElement(el)
		if !ok {
			continue
		}
		buildings = append(buildings, b)
	}

	return buildings, nil
}

func (a *OverpassAdapter) convertElement(el map[string]interface{}) (models.Building, bool) {
	raw := normalize.Raw{}
	if tags, ok := el["tags"].(map[string]interface{}); ok {
		for k, v := range tags {
			raw[k] = v
		}
	}
	raw["id"] = el["id"]

	b := normalize.Record(raw, normalize.KindOSM)

	lat, lng, footprint, ok := geometry.Extract(el["geometry"], geometry.Calgary)
	if !ok {
		log.Printf("overpass: no usable geometry for element %v", el["id"])
		return models.Building{}, false
	}
	if !geometry.Calgary.InBounds(lat, lng) {
		log.Printf("overpass: element %v outside region at %.4f,%.4f", el["id"], lat, lng)
		return models.Building{}, false
	}

	b.Latitude, b.Longitude = &lat, &lng
	if len(b.Footprint) == 0 {
		b.Footprint = footprint
	}
	return b, true
}
