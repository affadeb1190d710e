package main

import (
	"context"
	stdlog "log"
	"time"

	"go.uber.org/zap"

	"avvatracker/internal/config"
	"avvatracker/internal/db"
	"avvatracker/internal/logger"
	"avvatracker/internal/repository"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.Logger, cfg.Development())
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer log.Sync()

	conn, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tables, err := repository.Migrate(ctx, conn)
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migration complete", zap.Strings("tables", tables))
}
