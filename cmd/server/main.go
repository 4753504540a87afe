/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the armory ledger service: configuration,
  dependency wiring, initial reconciliation, graceful shutdown.

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: armory.db)
              Use ":memory:" for an in-memory database
  -page-size  Max transactions fetched per category per reconciliation

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - service/reconciler.go: Invocation coordination
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentinelops/armory-ledger/api"
	"github.com/sentinelops/armory-ledger/config"
	"github.com/sentinelops/armory-ledger/service"
	"github.com/sentinelops/armory-ledger/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "armory.db", "SQLite database path")
	pageSize := flag.Int("page-size", service.DefaultPageSize, "Transaction fetch bound per category")
	flag.Parse()

	log := config.GetLogger()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	reconciler := service.NewReconciler(store, log, *pageSize)
	if err := reconciler.Refresh(context.Background()); err != nil {
		// An empty database reconciles fine; this only fires on real
		// store trouble, and the server can still start.
		log.WithError(err).Warn("initial reconciliation failed")
	}

	handler := api.NewHandler(store, reconciler, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", *port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
