package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sumithkumar123/resume-analysis-app/internal/api"
	"github.com/sumithkumar123/resume-analysis-app/internal/config"
	"github.com/sumithkumar123/resume-analysis-app/internal/gemini"
	"github.com/sumithkumar123/resume-analysis-app/internal/secure"
	"github.com/sumithkumar123/resume-analysis-app/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	cipher, err := secure.New(cfg.JWTSecret)
	if err != nil {
		log.Error("failed to initialize field cipher", "error", err)
		os.Exit(1)
	}

	gc := gemini.NewClient(gemini.Config{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		BaseURL:        cfg.GeminiBaseURL,
		MaxAttempts:    cfg.MaxAttempts,
		BucketCapacity: cfg.RateLimitTokens,
		RefillInterval: cfg.RateLimitInterval,
	}, log)

	srv := api.NewServer(st, gc, cipher, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		gc.Close()
		st.Close()
	}()

	log.Info("starting resume analysis service", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
