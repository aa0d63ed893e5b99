// Package pipeline orchestrates one fetch-and-merge operation: adapters
// in priority order, reconciliation across sources, reference enrichment,
// and the completion ladder. All state is local to a single call.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"building-atlas/internal/models"
	"building-atlas/internal/normalize"
	"building-atlas/internal/reconcile"
	"building-atlas/internal/source"
)

// ErrAllSourcesFailed is the only hard failure: every network adapter
// errored and no offline fallback is configured.
var ErrAllSourcesFailed = errors.New("all sources failed and no fallback is configured")

// ZoningProvider supplies the zoning reference list for enrichment.
type ZoningProvider interface {
	FetchRefs(ctx context.Context, bounds models.Bounds, limit int) ([]models.ZoningRef, error)
}

// Config holds pipeline tuning.
type Config struct {
	// AdapterTimeout bounds each adapter call. An adapter that exceeds it
	// is treated as failed; the pipeline proceeds with partial results.
	AdapterTimeout time.Duration

	// Seed drives the completion ladder's value jitter. Zero means a
	// time-based seed per run.
	Seed int64

	// DiscardUnlocated drops records without coordinates instead of
	// carrying them as unmatched singletons.
	DiscardUnlocated bool
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{AdapterTimeout: 30 * time.Second}
}

// Pipeline aggregates buildings from all configured sources.
type Pipeline struct {
	adapters []source.Adapter
	fallback source.Adapter
	zoning   ZoningProvider
	cfg      Config
}

// New creates a pipeline. Adapter order is merge priority: community
// source first, official-but-sparse next, enrichment sources last.
// fallback and zoning may be nil.
func New(adapters []source.Adapter, fallback source.Adapter, zoning ZoningProvider, cfg Config) *Pipeline {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 30 * time.Second
	}
	return &Pipeline{adapters: adapters, fallback: fallback, zoning: zoning, cfg: cfg}
}

// Fetch runs the full pipeline for a bounding box. known is a snapshot of
// previously reconciled records whose fields keep precedence over fresh
// data; it may be nil.
//
// Every returned record has address, height, floors, building type,
// zoning, assessed value, and land use populated.
func (p *Pipeline) Fetch(ctx context.Context, bounds models.Bounds, limit int, known []models.Building) ([]models.Building, error) {
	start := time.Now()

	perSource := make([][]models.Building, 0, len(p.adapters))
	var assessmentRefs []models.AssessmentRef
	succeeded := 0

	for _, adapter := range p.adapters {
		if ctx.Err() != nil {
			log.Printf("pipeline: deadline reached, continuing with %d sources", succeeded)
			break
		}

		records, err := p.fetchOne(ctx, adapter, bounds, limit)
		if err != nil {
			log.Printf("pipeline: adapter %s failed: %v", adapter.Name(), err)
			continue
		}

		succeeded++
		perSource = append(perSource, records)
		log.Printf("pipeline: %s contributed %d records", adapter.Name(), len(records))

		if adapter.Name() == string(normalize.KindAssessments) {
			assessmentRefs = append(assessmentRefs, assessmentRefsFrom(records)...)
		}
	}

	if succeeded == 0 {
		if p.fallback == nil {
			return nil, ErrAllSourcesFailed
		}
		log.Printf("pipeline: all network sources failed, using %s", p.fallback.Name())
		records, err := p.fallback.Fetch(ctx, bounds, limit)
		if err != nil {
			return nil, ErrAllSourcesFailed
		}
		perSource = append(perSource, records)
	}

	merged := reconcile.Merge(perSource, reconcile.Options{
		DiscardUnlocated: p.cfg.DiscardUnlocated,
		Known:            known,
	})

	zoningRefs := p.fetchZoningRefs(ctx, bounds)
	reconcile.Enrich(merged, zoningRefs, assessmentRefs)

	seed := p.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	completer := reconcile.NewCompleter(seed)
	for i := range merged {
		merged[i] = completer.Complete(merged[i])
	}

	reconcile.SortByAssessedValue(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	log.Printf("pipeline: %d buildings from %d sources in %s", len(merged), succeeded, time.Since(start).Round(time.Millisecond))
	return merged, nil
}

func (p *Pipeline) fetchOne(ctx context.Context, adapter source.Adapter, bounds models.Bounds, limit int) ([]models.Building, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.AdapterTimeout)
	defer cancel()
	return adapter.Fetch(fetchCtx, bounds, limit)
}

func (p *Pipeline) fetchZoningRefs(ctx context.Context, bounds models.Bounds) []models.ZoningRef {
	if p.zoning == nil {
		return nil
	}

	refCtx, cancel := context.WithTimeout(ctx, p.cfg.AdapterTimeout)
	defer cancel()

	refs, err := p.zoning.FetchRefs(refCtx, bounds, 1000)
	if err != nil {
		log.Printf("pipeline: zoning lookup unavailable: %v", err)
		return nil
	}
	return refs
}

// assessmentRefsFrom builds the point-level assessment lookup list from
// located assessment records.
func assessmentRefsFrom(records []models.Building) []models.AssessmentRef {
	refs := make([]models.AssessmentRef, 0, len(records))
	for _, r := range records {
		if !r.HasLocation() || r.AssessedValue == nil {
			continue
		}
		ref := models.AssessmentRef{
			AssessedValue: *r.AssessedValue,
			Latitude:      *r.Latitude,
			Longitude:     *r.Longitude,
		}
		if r.Address != nil {
			ref.Address = *r.Address
		}
		refs = append(refs, ref)
	}
	return refs
}
