package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Mediarr/config"
	"Mediarr/database"
	"Mediarr/logger"
	"Mediarr/services"
	"Mediarr/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger isn't up yet
		panic(err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("env", cfg.Environment).Msg("Initializing Mediarr components...")

	dbs, err := database.Connect(cfg.MovieDatabaseURL, cfg.MangaDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to databases")
	}
	defer dbs.Close()

	if err := database.RunMigrations(dbs); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	store := storage.New()
	store.Bind(storage.MovieBucket, cfg.MovieBucketPath)
	store.Bind(storage.MangaBucket, cfg.MangaBucketPath)
	store.Bind(storage.StaticBucket, cfg.StaticBucketPath)

	sessions := services.NewSessionService(cfg.JWTSecret, cfg.LoginCodeHash, cfg.SessionTTL, cfg.Environment == "production")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      buildRouter(cfg, dbs, store, sessions),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // streams can run long
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Mediarr is starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
