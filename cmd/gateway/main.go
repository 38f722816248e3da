// cmd/gateway serves the decision WebSocket gateway: it relays published
// decisions from Redis pub/sub to browser clients and exposes the REST
// query surface (history, replay backfill, fills, status).
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"volarbv1/config"
	"volarbv1/internal/execution"
	"volarbv1/internal/gateway"
	redisstore "volarbv1/internal/store/redis"
)

var processStart = time.Now()

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[gateway] starting...")

	if err := godotenv.Load(); err == nil {
		log.Println("[gateway] loaded .env")
	}

	redisAddr := config.GetEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := config.GetEnv("REDIS_PASSWORD", "")
	listenAddr := config.GetEnv("GATEWAY_ADDR", ":9097")
	journalPath := config.GetEnv("JOURNAL_PATH", "data/journal.db")
	symbols := config.ParseList(config.GetEnv("SYMBOLS", "SPY"))

	store, err := redisstore.NewReader(redisstore.ReaderConfig{
		Addr:     redisAddr,
		Password: redisPassword,
	})
	if err != nil {
		log.Fatalf("[gateway] redis connection failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The fill journal is optional: the gateway can run on a host without
	// access to the engine's SQLite file.
	journal, err := execution.NewJournal(journalPath)
	if err != nil {
		log.Printf("[gateway] WARNING: journal open failed: %v (/api/fills disabled)", err)
		journal = nil
	}

	hub := gateway.NewHub(store, symbols)
	go hub.Router.Run(ctx)
	go hub.StartStatusBroadcast(ctx, processStart)

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, journal, processStart)

	srv := &http.Server{Addr: listenAddr, Handler: mux}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[gateway] serving at http://localhost%s", listenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[gateway] server error: %v", err)
		}
	}()

	<-sigCh
	log.Println("[gateway] shutting down...")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutCancel()
	srv.Shutdown(shutCtx)

	if journal != nil {
		journal.Close()
	}
	store.Close()
	log.Println("[gateway] shutdown complete.")
}
