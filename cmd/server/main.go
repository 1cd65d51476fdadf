/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the contract wizard server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Configure structured logging
  3. Initialize SQLite snapshot store
  4. Create session registry and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -db             SQLite database path (default: wizard.db)
                  Use ":memory:" for an in-memory database
  -contracts-url  Base URL of the external contracts API

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Tear down live sessions (pending auto-save timers cancelled)
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Snapshot store
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/api"
	"github.com/danielGPGT/tour-ops-saas-app-sub001/pkg/logging"
	"github.com/danielGPGT/tour-ops-saas-app-sub001/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "wizard.db", "SQLite database path")
	contractsURL := flag.String("contracts-url", "http://localhost:9090", "Base URL of the contracts API")
	flag.Parse()

	logging.Setup()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := api.NewSessionRegistry(api.CountingSink{Next: store})
	handler := api.NewHandler(sessions, store, api.NewContractsClient(*contractsURL))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("wizard server starting", "addr", server.Addr, "contracts", *contractsURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	sessions.CloseAll()
	slog.Info("server stopped")
}
