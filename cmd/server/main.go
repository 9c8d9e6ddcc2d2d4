package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/vecdraw/internal/api"
	"github.com/inamate/vecdraw/internal/auth"
	"github.com/inamate/vecdraw/internal/collab"
	"github.com/inamate/vecdraw/internal/config"
	"github.com/inamate/vecdraw/internal/db"
	"github.com/inamate/vecdraw/internal/export"
	mw "github.com/inamate/vecdraw/internal/middleware"
	"github.com/inamate/vecdraw/internal/sessions"
	"github.com/inamate/vecdraw/internal/store"
)

const (
	sessionIdle  = 2 * time.Hour
	expiryPeriod = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	designs, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open design store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	opts := cfg.EditorOptions()
	registry := sessions.NewRegistry(opts)
	authService := auth.NewService(cfg.JWTSecret)

	hub := collab.NewHub()
	go hub.Run()

	handler := api.NewHandler(api.Deps{
		Sessions: registry,
		Store:    designs,
		Auth:     authService,
		Hub:      hub,
		Export:   export.NewHandler(designs, int(opts.Width), int(opts.Height)),
		Origins:  cfg.Origins(),
	})

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	handler.Routes(r)

	go func() {
		ticker := time.NewTicker(expiryPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				handler.ExpireSessions(sessionIdle)
			case <-ctx.Done():
				return
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore returns the configured design store and a function that
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.StoreBackend != config.StorePostgres {
		s, err := store.NewFileStore(cfg.DesignDir)
		return s, func() {}, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	s := store.NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}
