package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"building-atlas/internal/db"
	"building-atlas/internal/models"
	"building-atlas/internal/pipeline"
	"building-atlas/internal/source"
)

func main() {
	// Parse command line flags
	dbPath := flag.String("db", "", "Path to SQLite database")
	boundsStr := flag.String("bounds", "51.042,-114.075,51.048,-114.065", "Bounding box: lat_min,lng_min,lat_max,lng_max")
	limit := flag.Int("limit", 500, "Maximum buildings to ingest")
	seed := flag.Int64("seed", 0, "Seed for value estimation jitter (0 = time-based)")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-source fetch timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env: %v", err)
	}

	bounds, err := models.ParseBounds(*boundsStr)
	if err != nil {
		log.Fatalf("Invalid bounds: %v", err)
	}

	// Determine database path
	if *dbPath == "" {
		cwd, _ := os.Getwd()
		*dbPath = filepath.Join(cwd, "data", "building-atlas.db")
	}

	log.Printf("Using database: %s", *dbPath)

	// Initialize database
	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	soda := source.NewSODAClient(os.Getenv("SODA_BASE_URL"))
	adapters := []source.Adapter{
		source.NewOverpassAdapter(os.Getenv("OVERPASS_URL")),
		source.NewBuildings3DAdapter(soda),
		source.NewFootprintsAdapter(soda),
		source.NewPermitsAdapter(soda),
		source.NewAssessmentsAdapter(soda),
	}

	cfg := pipeline.DefaultConfig()
	cfg.AdapterTimeout = *timeout
	cfg.Seed = *seed
	fetcher := pipeline.New(adapters, source.NewSampleAdapter(), source.NewZoningSource(soda), cfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received interrupt signal, shutting down...")
		cancel()
	}()

	log.Printf("Ingesting buildings for %s", bounds.String())
	startTime := time.Now()

	// Existing records keep field precedence over fresh data.
	known, err := database.ListBuildings(db.BuildingFilter{Bounds: &bounds, Limit: *limit})
	if err != nil {
		log.Fatalf("Failed to load existing buildings: %v", err)
	}

	buildings, err := fetcher.Fetch(ctx, bounds, *limit, known)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}

	saved := 0
	for i := range buildings {
		if err := database.UpsertBuilding(&buildings[i]); err != nil {
			log.Printf("Failed to save building %s: %v", buildings[i].SourceID, err)
			continue
		}
		saved++
	}

	log.Printf("Ingest complete: %d fetched, %d saved in %s", len(buildings), saved, time.Since(startTime).Round(time.Millisecond))
}
