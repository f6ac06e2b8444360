package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"anoa.com/handchatter/internal/config"
	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/internal/server"
	"anoa.com/handchatter/pkg/cache"
	"anoa.com/handchatter/pkg/database"
	"anoa.com/handchatter/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Options{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		Debug:    cfg.IsDevelopment(),
	})
	if err != nil {
		logger.Log.Fatalf("database: %v", err)
	}
	if err := entity.AutoMigrate(db); err != nil {
		logger.Log.Fatalf("migration failed: %v", err)
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	srv, err := server.NewServer(ctx, cfg, server.Dependencies{DB: db, Redis: redisClient})
	if err != nil {
		logger.Log.Fatalf("failed to initialize server: %v", err)
	}

	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		logger.Log.Fatalf("server exited with error: %v", err)
	}
	logger.Log.Info("server stopped")
}
