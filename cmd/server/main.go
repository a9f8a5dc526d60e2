/*
main.go - Calculation service entry point

PURPOSE:
  Starts the EAD calculation HTTP service. Handles configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the parameter file (or supervisory defaults)
  3. Build the waterfall and snapshot opener
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -snapshots  Directory containing SQLite snapshot files (default: ./snapshots)
  -params     YAML parameter file; omitted = supervisory defaults

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Exit

EXAMPLES:
  # Run against a snapshot directory with reviewed parameters
  ./server -snapshots=./snapshots -params=./params/2026q2.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Snapshot source
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/warp/capital-engine/api"
	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
	"github.com/warp/capital-engine/factory"
	"github.com/warp/capital-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	snapshotDir := flag.String("snapshots", "./snapshots", "directory containing SQLite snapshot files")
	paramsPath := flag.String("params", "", "YAML parameter file (default: supervisory defaults)")
	flag.Parse()

	// Parameters
	cfg := engine.DefaultConfig()
	schedule := crm.DefaultHaircutSchedule()
	if *paramsPath != "" {
		var err error
		cfg, schedule, err = factory.Load(*paramsPath)
		if err != nil {
			log.Fatalf("Failed to load parameters: %v", err)
		}
	}

	// Snapshot opener: resolves snapshot names inside the snapshot
	// directory, rejecting path escapes.
	open := func(name string) (engine.Source, func(), error) {
		if strings.Contains(name, "..") {
			return nil, nil, fmt.Errorf("invalid snapshot name %q", name)
		}
		src, err := sqlite.New(filepath.Join(*snapshotDir, name))
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	}

	handler := api.NewHandler(crm.NewWaterfall(cfg, schedule), open)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // runs execute synchronously
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Calculation service starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
