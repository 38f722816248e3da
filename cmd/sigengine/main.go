// cmd/sigengine runs the live signal engine: it ingests price observations
// over WebSocket, evaluates per-instrument signals, executes paper fills,
// and publishes decisions to Redis.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"volarbv1/internal/logger"
	"volarbv1/internal/sigengine"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	if err := godotenv.Load(); err == nil {
		log.Println("[sigengine] loaded .env")
	}

	logger.Init("sigengine", slog.LevelInfo)

	cfg := sigengine.LoadConfig()
	log.Printf("[sigengine] symbols: %v, snapshot interval: %ds", cfg.Symbols, cfg.SnapshotIntervalS)

	svc, err := sigengine.New(cfg)
	if err != nil {
		log.Fatalf("[sigengine] init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("[sigengine] fatal: %v", err)
	}
}
