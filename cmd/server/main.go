package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/cache"
	"github.com/skillforge-io/backend/internal/logger"
	"github.com/skillforge-io/backend/internal/router"
	"github.com/skillforge-io/backend/pkg/config"
	"github.com/skillforge-io/backend/pkg/firebase"
	"github.com/skillforge-io/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize the global logger
	logger.Init(&logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.Format(cfg.LogFormat),
		Component: "skillforge-api",
	})

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Error("Failed to initialize databases", "err", err)
		os.Exit(1)
	}
	defer db.CloseDB()

	// Redis backs presence and like-count caching
	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisCache.Close()

	ctx := context.Background()
	if err := redisCache.Ping(ctx); err != nil {
		logger.Error("Failed to connect to Redis", "err", err)
		os.Exit(1)
	}
	logger.Info("Connected to Redis", "addr", cfg.RedisAddr)

	// Firebase push delivery is optional; without credentials the server
	// runs with in-app notifications only.
	var fcm *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		fcm, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Warn("Failed to initialize Firebase, push delivery disabled", "err", err)
			fcm = nil
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	hub, err := router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, redisCache, fcm)
	if err != nil {
		logger.Error("Failed to set up routes", "err", err)
		os.Exit(1)
	}

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", "err", err)
			os.Exit(1)
		}
	}()
	logger.Info("Server started", "port", cfg.Port, "env", cfg.Env)

	// Wait for an interrupt, then drain websocket connections and stop the
	// HTTP server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Shutdown(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "err", err)
	}
}
