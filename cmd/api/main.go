package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/sngm3741/podcast-question-gateway/internal/config"
	"github.com/sngm3741/podcast-question-gateway/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	app := server.New(cfg)
	if err := app.Run(); err != nil {
		cfg.Logger.Fatal("server stopped", zap.Error(err))
	}
}
