package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/routecast/internal/api"
	"github.com/banshee-data/routecast/internal/config"
	"github.com/banshee-data/routecast/internal/db"
)

func runServe(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(cmdServe, flag.ContinueOnError)
	fs.SetOutput(stderr)
	listen := fs.String("listen", "localhost:8080", "Listen address")
	configPath := fs.String("config", "", "Path to a JSON analysis config")
	dbPath := fs.String("db", "", "SQLite results database (overrides config db_path)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg := config.DefaultAnalysisConfig()
	if *configPath != "" {
		loaded, err := config.LoadAnalysisConfig(*configPath)
		if err != nil {
			log.Printf("error: %v", err)
			return 1
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.SetDBPath(*dbPath)
	}
	if cfg.GetDBPath() == "" {
		log.Printf("error: a results database is required (-db or db_path)")
		return 1
	}

	d, err := db.Open(cfg.GetDBPath())
	if err != nil {
		log.Printf("error: %v", err)
		return 1
	}
	defer d.Close()

	mux, err := newServeMux(d)
	if err != nil {
		log.Printf("error: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("failed to shut down server: %v", err)
		}
	}()

	fmt.Fprintf(stdout, "serving %s on http://%s/debug/\n", d.Path(), *listen)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("failed to start server: %v", err)
		return 1
	}
	return 0
}

// newServeMux mounts the results API and the debug console.
func newServeMux(d *db.DB) (*http.ServeMux, error) {
	mux := api.NewServer(d).ServeMux()
	if err := d.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}
