// Package main runs the Luma companion server: the configuration-driven
// application state and personalization/location event pipeline of the
// sample storefront, exposed over a small REST API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/luma-mobile/companion-service/internal/app"
	"github.com/luma-mobile/companion-service/internal/app/catalog"
	"github.com/luma-mobile/companion-service/internal/app/edge"
	"github.com/luma-mobile/companion-service/internal/app/httpapi"
	"github.com/luma-mobile/companion-service/internal/app/storage"
	"github.com/luma-mobile/companion-service/internal/app/storage/postgres"
	"github.com/luma-mobile/companion-service/internal/config"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to server config file (default config/server.yaml)")
	flag.Parse()

	var cfg *config.Server
	if *configPath != "" {
		loaded, err := config.LoadServerConfigFromPath(*configPath)
		if err != nil {
			logger.NewDefault("server").WithError(err).Error("load config")
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadServerConfigOrDefault()
	}

	env, err := config.LoadEnv()
	if err != nil {
		logger.NewDefault("server").WithError(err).Error("decode environment")
		os.Exit(1)
	}
	env.Apply(cfg)

	log := logger.New("server", cfg.LogLevel, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events storage.EventStore
	if env.DatabaseURL != "" {
		db, err := sql.Open("postgres", env.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()
		store := postgres.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			log.WithError(err).Error("ensure schema")
			os.Exit(1)
		}
		events = store
		log.Info("event audit store backed by postgres")
	}

	var catalogCache *catalog.Cache
	if env.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.WithError(err).Warn("redis unreachable, catalog cache disabled")
		} else {
			catalogCache = catalog.NewCache(client)
			log.Info("catalog cache backed by redis")
		}
		defer client.Close()
	}

	opts := app.Options{
		ConfigLocation:   cfg.ConfigLocation,
		CatalogCache:     catalogCache,
		LocationSchedule: cfg.LocationSchedule,
		OfferTimeout:     time.Duration(cfg.OfferTimeoutMS) * time.Millisecond,
	}

	application, err := app.New(app.Stores{Events: events}, app.Collaborators{}, opts, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	application.LoadAll(ctx)

	if env.TokenEndpoint != "" {
		tokenClient, err := edge.NewTokenClient(nil, env.TokenEndpoint, env.TokenClientID, env.TokenSecret, env.TokenScopes, log)
		if err != nil {
			log.WithError(err).Warn("configure token client")
		} else if _, err := tokenClient.AccessToken(ctx); err != nil {
			log.WithError(err).Warn("access token exchange failed")
		} else {
			log.Info("access token acquired")
		}
	}

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewHandler(application),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}
}
