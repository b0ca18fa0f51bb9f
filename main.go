package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luteorg/lute-api/books"
	"github.com/luteorg/lute-api/config"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/languages"
	"github.com/luteorg/lute-api/system"
	"github.com/luteorg/lute-api/terms"
	"github.com/luteorg/lute-api/tools"
)

func logStartupInfo(cfg config.Config) {
	fmt.Println("=== Lute API ===")
	fmt.Printf("Version:         %s\n", config.Version)
	fmt.Printf("Port:            %s\n", cfg.Port)
	if cfg.DBURL != "" {
		fmt.Printf("Database:        %s (remote)\n", cfg.DBURL)
	} else {
		fmt.Printf("Database:        %s\n", cfg.DBPath)
	}
	fmt.Printf("Request timeout: %s\n", cfg.RequestTimeout)
	fmt.Printf("Parsers:         %v\n", cfg.ParserTypes)
	if cfg.MaxPageSize > 0 {
		fmt.Printf("Page size:       %d max\n", cfg.MaxPageSize)
	}

	if len(cfg.CORSOrigins) == 0 {
		fmt.Println("[INFO] CORS disabled (no origins configured)")
	} else {
		fmt.Printf("[OK]   CORS origins: %v\n", cfg.CORSOrigins)
	}
	fmt.Println()
}

// newHandler registers every route group and wraps the mux in the
// middleware chain.
func newHandler(db *data.Database, cfg config.Config) http.Handler {
	app := http.NewServeMux()

	books.RegisterRoutes(app, db, cfg)
	terms.RegisterRoutes(app, db, cfg)
	languages.RegisterRoutes(app, db, cfg)
	system.RegisterRoutes(app, db, cfg)
	app.Handle("GET /metrics", tools.MetricsHandler())

	// panic recovery -> logging -> timeout -> max body -> cors -> metrics -> handler
	return tools.PanicRecoveryMiddleware(
		tools.LoggingMiddleware(
			tools.TimeoutMiddleware(cfg.RequestTimeout)(
				tools.MaxBodyMiddleware(cfg.MaxRequestBody)(
					tools.CORSMiddleware(cfg.CORSOrigins)(
						tools.MetricsMiddleware(app))))))
}

func main() {
	cfg := config.Load()
	tools.InitLogger(cfg.LogLevel)
	logStartupInfo(cfg)

	db, err := data.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	server := &http.Server{
		Addr:    cfg.Port,
		Handler: newHandler(db, cfg),
	}

	go func() {
		fmt.Printf("Listening on %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	fmt.Println("Server stopped")
}
