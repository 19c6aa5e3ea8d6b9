package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"rollbook/internal/config"
	"rollbook/internal/logger"
	"rollbook/internal/roster"
	"rollbook/internal/store"
)

// Seed wipes the configured store and loads the starter hierarchy.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.StoreBackend == config.StoreMemory {
		lg.Fatal("seeding the memory store has no lasting effect; set STORE_BACKEND")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		lg.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	if err := Seed(ctx, st, roster.NewService(st, roster.NewLocalLocker(), lg)); err != nil {
		lg.Fatal("seed failed", zap.Error(err))
	}
	lg.Info("data seeded", zap.String("backend", cfg.StoreBackend))
}
