package main

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"lobbysign/api"
	"lobbysign/carousel"
	"lobbysign/display"
	"lobbysign/layout"
	"lobbysign/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	// Get LOBBYSIGN_ROOT_PATH from environment
	rootPath := os.Getenv("LOBBYSIGN_ROOT_PATH")
	if rootPath == "" {
		log.Fatal("LOBBYSIGN_ROOT_PATH environment variable is required")
	}

	// Initialize database
	dbPath := filepath.Join(rootPath, "lobbysign.db")
	database, err := store.NewDatabase(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Sample the physical display for the layout engine; falls back to the
	// default profile when the output cannot be queried.
	metrics, err := display.CurrentMetrics()
	if err != nil {
		slog.Warn("unable to sample display, using default profile", "error", err)
	}

	orch := carousel.NewOrchestrator(database, layout.NewEngine(), metrics)
	defer orch.Close()

	port := os.Getenv("LOBBYSIGN_PORT")
	if port == "" {
		port = "0.0.0.0:8080"
	}

	// Initialize and start web server
	webServer := api.NewWebServer(database, orch, rootPath)
	webServer.Start(port)
}
