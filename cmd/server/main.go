package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/violetear/api/internal/logging"
	"github.com/violetear/api/internal/server"
	"github.com/violetear/api/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	gin.SetMode(gin.ReleaseMode)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "app exited with error", "error", err)
	}
}
