package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/genaiplatform/backend/internal/api"
	"github.com/genaiplatform/backend/internal/config"
	"github.com/genaiplatform/backend/internal/database"
	"github.com/genaiplatform/backend/internal/jobs"
	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/migrations"
	"github.com/genaiplatform/backend/internal/websocket"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	logger.Init(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: cfg.Env == "development",
	})

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	if err := migrations.Seed(db); err != nil {
		logger.Fatal().Err(err).Msg("database seeding failed")
	}

	rdb, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		rdb = nil
	}

	hub := websocket.NewHub()
	go hub.Run()

	server := api.NewServer(cfg, db, rdb, hub)

	scheduler := jobs.NewScheduler(server.Services())
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler start failed")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.ProviderTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}
