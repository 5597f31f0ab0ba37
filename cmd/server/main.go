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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
	"github.com/saifulislam80/r2-manager/pkg/r2manager/api"
	"github.com/saifulislam80/r2-manager/pkg/r2manager/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	if cfg.DatabaseType == "postgres" {
		if err := config.PingPostgres(cfg.DatabaseURL); err != nil {
			slog.Error("Failed to connect to database", "err", err)
			os.Exit(1)
		}
	}

	svc, err := cfg.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: routes(svc, cfg),
	}

	go func() {
		slog.Info("R2 Manager server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func routes(svc r2manager.Service, cfg *config.ServerConfig) http.Handler {
	auth := api.NewAuthenticator(cfg.JWTSecret, 24*time.Hour)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	if cfg.ThrottleLimit > 0 {
		r.Use(middleware.Throttle(cfg.ThrottleLimit))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "environment": "%s"}`, cfg.Environment)
	})

	r.Mount("/api/auth", api.NewAuthHandler(svc, auth).Routes())

	r.Route("/api/r2accounts", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Mount("/", api.NewAccountsHandler(svc).Routes())
	})

	r.Route("/api/r2", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Mount("/", api.NewOperationsHandler(svc).Routes())
	})

	r.Mount("/api/public-upload", api.NewPublicHandler(svc).Routes())

	return r
}
