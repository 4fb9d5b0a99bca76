// Command reindex rebuilds the embedding index from scratch as an
// offline batch job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ThisaraAriyawansha/vueon-search/internal/config"
	"github.com/ThisaraAriyawansha/vueon-search/internal/encoder"
	"github.com/ThisaraAriyawansha/vueon-search/internal/index"
	"github.com/ThisaraAriyawansha/vueon-search/internal/logger"
	"github.com/ThisaraAriyawansha/vueon-search/internal/search"
	"github.com/ThisaraAriyawansha/vueon-search/internal/videostore"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/search.yaml", "path to the service config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)

	var enc encoder.Encoder
	if cfg.Encoder.Provider == "" {
		enc, err = encoder.NewFromEnv()
	} else {
		enc, err = encoder.New(encoder.Config{
			Provider:  cfg.Encoder.Provider,
			Model:     cfg.Encoder.Model,
			CacheSize: cfg.Encoder.CacheSize,
		})
	}
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
		BatchSize:  cfg.Search.BatchSize,
		FlushEvery: cfg.Search.FlushEvery,
	}, log)

	ctx := context.Background()
	if err := svc.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search service")
	}

	stats, err := svc.Rebuild(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("rebuild failed")
	}

	log.Info().
		Int("indexed", stats.VideosIndexed).
		Int("failed", stats.VideosFailed).
		Dur("duration", stats.Duration).
		Msg("reindex finished")

	for _, msg := range stats.ErrorMessages {
		log.Warn().Msg(msg)
	}

	if stats.VideosFailed > 0 {
		os.Exit(1)
	}
}
