package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"building-atlas/internal/api"
	"building-atlas/internal/db"
	"building-atlas/internal/pipeline"
	"building-atlas/internal/source"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to listen on")
	dbPath := flag.String("db", "", "Path to SQLite database")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-source fetch timeout")
	flag.Parse()

	// .env is optional; environment variables win either way
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env: %v", err)
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

	// Build the source stack. Order is merge priority: community data
	// first, then the official city datasets.
	soda := source.NewSODAClient(os.Getenv("SODA_BASE_URL"))
	adapters := []source.Adapter{
		source.NewOverpassAdapter(os.Getenv("OVERPASS_URL")),
		source.NewBuildings3DAdapter(soda),
		source.NewFootprintsAdapter(soda),
		source.NewPermitsAdapter(soda),
		source.NewAssessmentsAdapter(soda),
	}
	zoning := source.NewZoningSource(soda)

	cfg := pipeline.DefaultConfig()
	cfg.AdapterTimeout = *timeout
	fetcher := pipeline.New(adapters, source.NewSampleAdapter(), zoning, cfg)

	// Create router
	router := api.NewRouter(database, fetcher, zoning)

	// Start server
	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Starting server on http://localhost%s", addr)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
