// placesd is the places backend: a rating-aware place catalog behind a
// bearer token gate.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/ludimus/places-backend/internal/api"
	"github.com/ludimus/places-backend/internal/config"
	"github.com/ludimus/places-backend/internal/server"
	"github.com/ludimus/places-backend/internal/store"
	"github.com/ludimus/places-backend/pkg/auth"
	"github.com/ludimus/places-backend/pkg/clients/postgres"
	"github.com/ludimus/places-backend/pkg/clients/redis"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("placesd terminated", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// The signing keys are a hard startup dependency. A backend that
	// cannot verify tokens must not come up half-working.
	keyStore, err := auth.NewKeyStore(cfg.Auth.KeyStore)
	if err != nil {
		return err
	}
	if err := keyStore.Load(ctx); err != nil {
		return err
	}
	logger.Info("signing keys loaded", slog.Int("count", keyStore.Len()))

	validator, err := auth.NewValidator(keyStore, cfg.Auth.Validator)
	if err != nil {
		return err
	}

	db, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db); err != nil {
		return err
	}

	repo := store.New(db)

	checks := map[string]api.HealthChecker{"postgres": db}

	if cfg.Redis.Enabled {
		cache, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := cache.Close(); closeErr != nil {
				logger.Warn("failed to close redis client", "error", closeErr)
			}
		}()

		repo = store.NewCached(repo, cache, store.DefaultCacheTTL)
		checks["redis"] = cache
		logger.Info("redis cache enabled", slog.String("addr", cfg.Redis.Addr()))
	}

	router := api.NewRouter(logger, validator,
		api.NewPlaceHandler(repo),
		api.NewHealthHandler(checks))

	return server.New(cfg.Server, logger, router).Run()
}

// setupLogger builds the process logger from the log configuration.
func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
