package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boting/backend/internal/api/handler"
	"boting/backend/internal/chathub"
	"boting/backend/internal/config"
	"boting/backend/internal/logging"
	"boting/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// setupDependencies opens whatever audit backends are configured. Both are optional.
func setupDependencies(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client) {
	var db *gorm.DB
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = storage.OpenDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect database")
		}
		log.Info().Str("driver", cfg.DatabaseDriver).Msg("Audit database connected")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		var err error
		rdb, err = storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect Redis")
		}
		log.Info().Str("addr", cfg.RedisAddr).Str("channel", cfg.RedisChannel).Msg("Redis connected")
	}
	return db, rdb
}

// waitForShutdown waits for the hub to stop, then stops the recorder and
// waits for it to flush. It reports false when deadline expired first.
func waitForShutdown(deadline context.Context, hubDone <-chan struct{}, stopRecorder context.CancelFunc, recorderDone <-chan struct{}) bool {
	select {
	case <-hubDone:
	case <-deadline.Done():
	}
	stopRecorder()

	select {
	case <-recorderDone:
		return true
	case <-deadline.Done():
		return false
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.Mode)

	log.Info().Str("version", config.ServiceVersion).Msg("Starting " + config.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	db, rdb := setupDependencies(ctx, cfg)
	s := storage.NewStorageService(db, rdb, cfg.RedisChannel)
	if err := s.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	opts := chathub.Options{SessionTTL: cfg.SessionTTL}
	var bans handler.BanChecker
	// The recorder outlives the hub so events recorded by the hub's last
	// handlers are still written.
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()
	recorderDone := make(chan struct{})
	if db != nil || rdb != nil {
		recorder := storage.NewRecorder(s, 1024)
		opts.Sink = recorder
		bans = s
		go func() {
			recorder.Run(recorderCtx)
			close(recorderDone)
		}()
	} else {
		close(recorderDone)
	}

	// 2. Hub
	hub := chathub.NewManagerService(opts)
	go hub.Run(ctx)

	// 3. HTTP
	h := handler.NewHandler(hub, cfg, bans)
	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        h.NewRouter(),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}

	if !waitForShutdown(shutdownCtx, hub.Done(), stopRecorder, recorderDone) {
		log.Warn().Msg("Lifecycle recorder did not flush in time")
	}

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Info().Msg("Stopped.")
}
