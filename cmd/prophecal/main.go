package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"prophecal/handlers"
	"prophecal/internal/app"
	"prophecal/internal/config"
	"prophecal/services/sessions"
	"prophecal/utils"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	configPath := flag.String("config", "prophecal.yaml", "path to config file")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] failed to load config %q: %v", *configPath, err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.GeminiModel = model
	}
	if geminiKey == "" {
		log.Printf("[main] GEMINI_API_KEY not set, issue checks run on heuristics only")
	}

	sessionsSvc, err := sessions.NewService(
		afero.NewOsFs(),
		cfg.SessionDir,
		time.Duration(cfg.SessionHours)*time.Hour,
		app.Factory(cfg, geminiKey),
	)
	if err != nil {
		log.Fatalf("[main] failed to start session manager: %v", err)
	}

	router := utils.NewRouter()
	handlers.RegisterRoutes(router, sessionsSvc, cfg)

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[main] received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}
