package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ThisaraAriyawansha/vueon-search/internal/api"
	"github.com/ThisaraAriyawansha/vueon-search/internal/config"
	"github.com/ThisaraAriyawansha/vueon-search/internal/encoder"
	"github.com/ThisaraAriyawansha/vueon-search/internal/index"
	"github.com/ThisaraAriyawansha/vueon-search/internal/logger"
	"github.com/ThisaraAriyawansha/vueon-search/internal/search"
	"github.com/ThisaraAriyawansha/vueon-search/internal/videostore"
)

// buildEncoder honors an explicit provider from config and otherwise
// falls back to environment detection.
func buildEncoder(cfg *config.Config) (encoder.Encoder, error) {
	if cfg.Encoder.Provider == "" {
		return encoder.NewFromEnv()
	}

	var apiKey string
	switch cfg.Encoder.Provider {
	case encoder.ProviderOpenAI:
		apiKey = os.Getenv(encoder.EnvOpenAIAPIKey)
	case encoder.ProviderJina:
		apiKey = os.Getenv(encoder.EnvJinaAPIKey)
	}

	return encoder.New(encoder.Config{
		Provider:  cfg.Encoder.Provider,
		APIKey:    apiKey,
		Model:     cfg.Encoder.Model,
		CacheSize: cfg.Encoder.CacheSize,
	})
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("VUEON_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/search.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)

	enc, err := buildEncoder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build encoder")
	}
	defer func() { _ = enc.Close() }()

	videos, err := videostore.Open(cfg.Store.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open video store")
	}
	defer func() { _ = videos.Close() }()

	store := index.NewStore(cfg.Store.IndexPath, log)
	svc := search.New(enc, store, videos, search.Config{
		BatchSize:      cfg.Search.BatchSize,
		FlushEvery:     cfg.Search.FlushEvery,
		SemanticWeight: cfg.Search.SemanticWeight,
		KeywordWeight:  cfg.Search.KeywordWeight,
		MinCombined:    cfg.Search.MinCombined,
		DefaultLimit:   cfg.Search.DefaultLimit,
		Threshold:      cfg.Search.Threshold,
	}, log)

	if err := svc.Initialize(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search service")
	}

	router := api.NewRouter(&api.App{Search: svc, Videos: videos, Logger: log})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTP.Port).Msg("starting search server")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
