package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/wayfarer/internal/api"
	"github.com/neexbeast/wayfarer/internal/cache"
	"github.com/neexbeast/wayfarer/internal/config"
	"github.com/neexbeast/wayfarer/internal/itinerary"
	"github.com/neexbeast/wayfarer/internal/poi"
	"github.com/neexbeast/wayfarer/internal/storage"
	"github.com/neexbeast/wayfarer/internal/translate"
	"github.com/neexbeast/wayfarer/internal/weather"
	"github.com/neexbeast/wayfarer/migrations"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx := context.Background()

	var (
		catalog    api.Catalog = poi.NewStaticCatalog()
		phrasebook             = translate.DefaultPhrasebook()
		dbPinger   api.Pinger
	)

	// PostgreSQL is optional: without it the bundled catalog is served.
	if cfg.DatabaseURL != "" {
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		repo, pb, err := prepareDatabase(ctx, pool, cfg.MigrationsDir, log)
		if err != nil {
			return err
		}
		catalog, phrasebook, dbPinger = repo, pb, pool
	} else {
		log.Info("DATABASE_URL not set, serving bundled catalog")
	}

	forecaster := weather.NewForecaster(newWeatherClient(cfg), log)
	var weatherSource itinerary.WeatherSource = forecaster
	gatewayOpts := []translate.Option{
		translate.WithLogger(log),
		translate.WithPhrasebook(phrasebook),
	}

	// Redis is optional: without it nothing is cached.
	var redisPinger api.Pinger
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		cacheLayer := cache.NewCache(redisClient)
		weatherSource = cache.NewForecaster(cacheLayer, forecaster, log)
		gatewayOpts = append(gatewayOpts, translate.WithCache(cacheLayer))
		redisPinger = cache.Pinger{Client: redisClient}
	} else {
		log.Info("REDIS_URL not set, caching disabled")
	}

	// Wire dependencies.
	gateway := translate.NewGateway(cfg.Translate, gatewayOpts...)
	log.Info("translation chain ready", "providers", gateway.Providers())

	planner := itinerary.NewPlanner(catalog, weatherSource, itinerary.DefaultPolicy(), log)
	handlers := api.NewHandlers(catalog, weatherSource, planner, gateway, log)

	router := api.NewRouter(handlers, api.RouterConfig{
		Token:       cfg.BearerToken,
		CORSOrigins: cfg.CORSOrigins,
		DB:          dbPinger,
		Redis:       redisPinger,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// prepareDatabase migrates the schema, seeds an empty catalog with the
// bundled data and loads the phrasebook from the phrases table.
func prepareDatabase(ctx context.Context, pool *pgxpool.Pool, dir string, log *slog.Logger) (*storage.Repository, *translate.MapPhrasebook, error) {
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}

	applied, err := storage.RunMigrations(ctx, pool, fsys)
	if err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "files", applied)

	repo := storage.NewRepository(pool)
	seeded, err := repo.Seed(ctx, poi.Bundled(), translate.DefaultPhrasebook())
	if err != nil {
		return nil, nil, fmt.Errorf("seeding catalog: %w", err)
	}
	if seeded {
		log.Info("catalog seeded with bundled data")
	}

	pb, err := repo.Phrases(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading phrasebook: %w", err)
	}
	return repo, pb, nil
}

func newWeatherClient(cfg config.Config) *weather.Client {
	if cfg.WeatherBaseURL != "" {
		return weather.NewClientWithURL(cfg.WeatherBaseURL, cfg.WeatherRPS)
	}
	return weather.NewClient(cfg.WeatherRPS)
}
