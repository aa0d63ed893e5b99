package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"building-atlas/internal/models"
	"building-atlas/internal/normalize"
)

const (
	defaultSODABaseURL = "https://data.calgary.ca/resource"

	// SODA 2.0 caps page size at 1000.
	sodaPageSize = 1000

	// Calgary open-data dataset ids.
	datasetPermits     = "c2es-76ed"
	datasetAssessments = "4bsw-nn7w"
	dataset3DBuildings = "cchr-krqg"
	datasetFootprints  = "uc4c-6kbd"
	datasetZoning      = "qe6k-p9nh"
)

// SODAClient talks to a Socrata open-data portal.
type SODAClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewSODAClient creates a client for the given portal base URL; empty
// means the Calgary portal.
func NewSODAClient(baseURL string) *SODAClient {
	if baseURL == "" {
		baseURL = defaultSODABaseURL
	}
	return &SODAClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchAll pages through a dataset with explicit offsets. It stops when a
// page comes back short or empty, or when the max-records cap is hit —
// the cap guards against a misbehaving upstream paginating forever.
func (c *SODAClient) FetchAll(ctx context.Context, dataset string, extra url.Values, maxRecords int) ([]normalize.Raw, error) {
	if maxRecords <= 0 {
		maxRecords = sodaPageSize
	}

	var all []normalize.Raw
	offset := 0

	for len(all) < maxRecords {
		params := url.Values{}
		params.Set("$limit", fmt.Sprintf("%d", sodaPageSize))
		params.Set("$offset", fmt.Sprintf("%d", offset))
		params.Set("$order", ":id")
		for k, vs := range extra {
			for _, v := range vs {
				params.Set(k, v)
			}
		}

		page, err := c.fetchPage(ctx, dataset, params)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		if len(page) < sodaPageSize {
			break
		}

		offset += sodaPageSize
		if offset > maxRecords {
			break
		}
	}

	if len(all) > maxRecords {
		all = all[:maxRecords]
	}
	return all, nil
}

func (c *SODAClient) fetchPage(ctx context.Context, dataset string, params url.Values) ([]normalize.Raw, error) {
	reqURL := fmt.Sprintf("%s/%s.json?%s", c.baseURL, dataset, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "building-atlas/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dataset %s returned %d: %s", dataset, resp.StatusCode, string(body))
	}

	var page []normalize.Raw
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", dataset, err)
	}
	return page, nil
}

// latLngWhere builds a SODA $where clause constraining direct lat/lng
// columns to the bounding box.
func latLngWhere(bounds models.Bounds) string {
	conditions := []string{
		"latitude IS NOT NULL",
		"longitude IS NOT NULL",
		fmt.Sprintf("latitude >= %g", bounds.LatMin),
		fmt.Sprintf("latitude <= %g", bounds.LatMax),
		fmt.Sprintf("longitude >= %g", bounds.LngMin),
		fmt.Sprintf("longitude <= %g", bounds.LngMax),
	}
	return strings.Join(conditions, " AND ")
}

// withinBoxWhere builds a SODA spatial filter for geometry-column
// datasets. Socrata's within_box takes the NW corner first.
func withinBoxWhere(bounds models.Bounds) string {
	return fmt.Sprintf("within_box(the_geom, %g, %g, %g, %g)",
		bounds.LatMax, bounds.LngMin, bounds.LatMin, bounds.LngMax)
}

// PermitsAdapter fetches building permits: the best address coverage and
// construction dates, with project cost as a value proxy.
type PermitsAdapter struct {
	client *SODAClient
}

func NewPermitsAdapter(client *SODAClient) *PermitsAdapter {
	return &PermitsAdapter{client: client}
}

func (a *PermitsAdapter) Name() string { return string(normalize.KindPermits) }

func (a *PermitsAdapter) Fetch(ctx context.Context, bounds models.Bounds, limit int) ([]models.Building, error) {
	params := url.Values{}
	params.Set("$order", "permitdate DESC")
	if !bounds.IsZero() {
		params.Set("$where", latLngWhere(bounds))
	}

	raws, err := a.client.FetchAll(ctx, datasetPermits, params, limit)
	if err != nil {
		return nil, err
	}
	return convert(raws, normalize.KindPermits, bounds, limit), nil
}

// AssessmentsAdapter fetches property assessments: assessed values,
// zoning designations, and construction years. The dataset has no
// spatial columns, so filtering happens downstream.
type AssessmentsAdapter struct {
	client *SODAClient
}

func NewAssessmentsAdapter(client *SODAClient) *AssessmentsAdapter {
	return &AssessmentsAdapter{client: client}
}

func (a *AssessmentsAdapter) Name() string { return string(normalize.KindAssessments) }

func (a *AssessmentsAdapter) Fetch(ctx context.Context, bounds models.Bounds, limit int) ([]models.Building, error) {
	params := url.Values{}
	params.Set("$order", "assessed_value DESC")

	raws, err := a.client.FetchAll(ctx, datasetAssessments, params, limit)
	if err != nil {
		return nil, err
	}
	return convert(raws, normalize.KindAssessments, bounds, limit), nil
}

// Buildings3DAdapter fetches the 3-D building dataset: rooftop and ground
// elevations that yield measured heights.
type Buildings3DAdapter struct {
	client *SODAClient
}

func NewBuildings3DAdapter(client *SODAClient) *Buildings3DAdapter {
	return &Buildings3DAdapter{client: client}
}

func (a *Buildings3DAdapter) Name() string { return string(normalize.Kind3D) }

func (a *Buildings3DAdapter) Fetch(ctx context.Context, bounds models.Bounds, limit int) ([]models.Building, error) {
	params := url.Values{}
	if !bounds.IsZero() {
		params.Set("$where", latLngWhere(bounds))
	}

	raws, err := a.client.FetchAll(ctx, dataset3DBuildings, params, limit)
	if err != nil {
		return nil, err
	}
	return convert(raws, normalize.Kind3D, bounds, limit), nil
}

// FootprintsAdapter fetches building roof outlines.
type FootprintsAdapter struct {
	client *SODAClient
}

func NewFootprintsAdapter(client *SODAClient) *FootprintsAdapter {
	return &FootprintsAdapter{client: client}
}

func (a *FootprintsAdapter) Name() string { return string(normalize.KindFootprints) }

func (a *FootprintsAdapter) Fetch(ctx context.Context, bounds models.Bounds, limit int) ([]models.Building, error) {
	params := url.Values{}
	if !bounds.IsZero() {
		params.Set("$where", withinBoxWhere(bounds))
	}

	raws, err := a.client.FetchAll(ctx, datasetFootprints, params, limit)
	if err != nil {
		return nil, err
	}
	return convert(raws, normalize.KindFootprints, bounds, limit), nil
}
