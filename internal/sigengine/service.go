// Package sigengine wires the full signal engine service: WebSocket price
// ingest, per-instrument indicator/strategy evaluation, paper execution,
// decision publishing, and durable observation/snapshot storage.
package sigengine

import (
	"context"
	"log"
	"os"
	"time"

	"volarbv1/internal/execution"
	"volarbv1/internal/marketdata/bus"
	"volarbv1/internal/marketdata/ws"
	"volarbv1/internal/metrics"
	"volarbv1/internal/model"
	"volarbv1/internal/notification"
	"volarbv1/internal/portfolio"
	"volarbv1/internal/ringbuf"
	redisstore "volarbv1/internal/store/redis"
	sqlitestore "volarbv1/internal/store/sqlite"
	"volarbv1/internal/strategy"
)

// Service is the top-level orchestrator for the signal engine.
// It wires all dependencies, manages lifecycle, and coordinates goroutines.
type Service struct {
	cfg Config

	registry *strategy.Registry
	pf       *portfolio.Portfolio
	paper    *execution.Paper
	journal  *execution.Journal

	ingest      *ws.Ingest
	redisReader *redisstore.Reader
	redisWriter *redisstore.Writer
	buffered    *redisstore.BufferedWriter
	breaker     *redisstore.CircuitBreaker
	sqlReader   *sqlitestore.Reader
	sqlWriter   *sqlitestore.Writer

	prom     *metrics.Metrics
	health   *metrics.HealthStatus
	msrv     *metrics.Server
	notifier notification.Notifier

	ring      *ringbuf.Ring
	obsCh     chan model.Observation
	fanout    *bus.FanOut
	evalCh    <-chan model.Observation
	storeCh   <-chan model.Observation
	obsNotify chan struct{}
}

// New creates a new Service from the given Config.
// It connects to Redis and SQLite and builds the strategy registry.
func New(cfg Config) (*Service, error) {
	fileCfg, err := strategy.LoadFile(cfg.StrategyConfigPath)
	if err != nil {
		return nil, err
	}

	registry, err := strategy.NewRegistry(fileCfg.Engine, fileCfg.Indicators)
	if err != nil {
		return nil, err
	}
	for _, sym := range cfg.Symbols {
		if err := registry.Add(sym); err != nil {
			return nil, err
		}
	}

	pf, err := portfolio.New(cfg.StartingCash)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		cfg:       cfg,
		registry:  registry,
		pf:        pf,
		paper:     execution.NewPaper(pf),
		prom:      metrics.NewMetrics(),
		health:    metrics.NewHealthStatus(),
		notifier:  notification.FromEnv(),
		ring:      ringbuf.New(cfg.RingCapacity),
		obsCh:     make(chan model.Observation, 5000),
		fanout:    bus.New(5000),
		obsNotify: make(chan struct{}, 1),
	}

	// Subscriber 0 feeds the evaluation ring; subscriber 1 (if SQLite is up)
	// feeds the observation store.  Storage may drop under pressure;
	// evaluation drops are counted as lost observations.
	svc.evalCh = svc.fanout.Subscribe()
	svc.fanout.OnDrop = func(idx int) {
		if idx == 0 {
			svc.prom.DroppedObs.Inc()
		}
	}

	// ---- Connect to Redis ----
	svc.redisWriter, err = redisstore.New(redisstore.WriterConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, err
	}

	svc.redisReader, err = redisstore.NewReader(redisstore.ReaderConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		svc.redisWriter.Close()
		return nil, err
	}

	// ---- Open SQLite ----
	os.MkdirAll("data", 0o755)
	svc.sqlWriter, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Printf("[sigengine] WARNING: sqlite writer init failed: %v", err)
	}
	svc.sqlReader, err = sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Printf("[sigengine] WARNING: sqlite reader init failed: %v (continuing without warm-up)", err)
	}

	// ---- Decision journal ----
	svc.journal, err = execution.NewJournal(cfg.JournalPath)
	if err != nil {
		log.Printf("[sigengine] WARNING: journal init failed: %v (fills will not be journaled)", err)
	}

	// ---- Circuit breaker around decision publishing ----
	svc.breaker = redisstore.NewCircuitBreaker(5, 10*time.Second)
	svc.breaker.OnStateChange = func(from, to redisstore.State) {
		log.Printf("[sigengine] redis circuit breaker: %s -> %s", from, to)
		svc.prom.RedisCircuitBreakerState.Set(float64(to))
		if to == redisstore.StateOpen {
			svc.prom.RedisCircuitBreakerTrips.Inc()
		}
	}
	svc.buffered = redisstore.NewBufferedWriter(context.Background(), svc.redisWriter, svc.breaker, 0)
	svc.buffered.OnBuffer = func() { svc.prom.RedisBufferedWrites.Inc() }

	// ---- WebSocket ingest ----
	svc.ingest, err = ws.New(ws.Config{URL: cfg.WSFeedURL})
	if err != nil {
		return nil, err
	}
	svc.ingest.OnConnect = func() { svc.health.SetWSConnected(true) }
	svc.ingest.OnReconnect = func() {
		svc.health.SetWSConnected(false)
		svc.prom.WSReconnects.Inc()
	}

	svc.msrv = metrics.NewServer(cfg.MetricsAddr, svc.health)

	return svc, nil
}

// Run starts all subsystems and blocks until ctx is cancelled.
func (svc *Service) Run(ctx context.Context) error {
	cfg := svc.cfg
	log.Println("[sigengine] starting Signal Engine service...")

	// ---- Restore registry from snapshot + warm up from SQLite ----
	svc.restoreRegistry(ctx)

	svc.prom.Instruments.Set(float64(svc.registry.Len()))
	svc.health.SetInstruments(svc.registry.Instruments())

	// ---- Start subsystems ----
	if svc.sqlWriter != nil {
		svc.storeCh = svc.fanout.Subscribe()
		go svc.sqlWriter.Run(ctx, svc.storeCh)
	}
	go svc.fanout.Run(ctx, svc.obsCh)
	go svc.drainLoop(ctx)
	go svc.evalLoop(ctx)
	go svc.snapshotLoop(ctx)
	go func() {
		if err := svc.ingest.Start(ctx, svc.obsCh); err != nil {
			log.Printf("[sigengine] ingest error: %v", err)
		}
	}()

	if svc.sqlWriter != nil {
		svc.health.StartLivenessChecker(ctx, svc.redisWriter.Client(), svc.sqlWriter.DB(), 10*time.Second)
	} else {
		svc.health.StartLivenessChecker(ctx, svc.redisWriter.Client(), nil, 10*time.Second)
	}
	svc.msrv.Start()

	// ---- Startup banner ----
	log.Println("[sigengine] ╔════════════════════════════════════════════════════════╗")
	log.Println("[sigengine] ║  Signal Engine Active                                  ║")
	log.Println("[sigengine] ║                                                        ║")
	log.Println("[sigengine] ║  [WS Feed] → [Indicators] → [Decisions] → [Redis]      ║")
	log.Printf("[sigengine] ║  Snapshot checkpoint every %ds                         ║", cfg.SnapshotIntervalS)
	log.Printf("[sigengine] ║  Symbols: %v                                  ║", cfg.Symbols)
	log.Println("[sigengine] ╚════════════════════════════════════════════════════════╝")
	log.Println("[sigengine] all systems running. Press Ctrl+C to stop.")

	// Block until context cancelled
	<-ctx.Done()

	// ---- Graceful shutdown ----
	svc.shutdown()
	return nil
}

// drainLoop moves observations from the fan-out's evaluation channel into
// the SPSC ring and wakes the evaluation loop.
func (svc *Service) drainLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs, ok := <-svc.evalCh:
			if !ok {
				return
			}
			if !svc.ring.Push(obs) {
				svc.prom.RingBufOverflow.Inc()
				svc.prom.DroppedObs.Inc()
				continue
			}
			select {
			case svc.obsNotify <- struct{}{}:
			default:
			}
		}
	}
}

// shutdown saves a final snapshot and closes connections.
func (svc *Service) shutdown() {
	log.Println("[sigengine] shutdown signal received, saving final snapshot...")

	data, err := svc.registry.SnapshotJSON()
	if err == nil {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shutCancel()

		if svc.redisReader != nil {
			svc.redisReader.WriteSnapshotJSON(shutCtx, svc.cfg.SnapshotKey, data)
		}
		if svc.sqlWriter != nil {
			svc.sqlWriter.SaveSnapshotJSON(data)
		}
		log.Println("[sigengine] final snapshot saved")
	}

	// The fan-out closed its outputs when the context was cancelled.
	time.Sleep(300 * time.Millisecond) // let the sqlite writer drain its batch

	if svc.sqlReader != nil {
		svc.sqlReader.Close()
	}
	if svc.sqlWriter != nil {
		svc.sqlWriter.Close()
	}
	if svc.journal != nil {
		svc.journal.Close()
	}
	svc.redisWriter.Close()
	svc.redisReader.Close()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	svc.msrv.Stop(stopCtx)

	log.Println("[sigengine] shutdown complete.")
}

// restoreRegistry restores indicator state from the Redis snapshot mirror,
// falling back to SQLite, then replays stored observations to warm up
// whatever stayed cold.
func (svc *Service) restoreRegistry(ctx context.Context) {
	var data []byte
	var err error

	data, err = svc.redisReader.ReadSnapshotJSON(ctx, svc.cfg.SnapshotKey)
	if err != nil {
		log.Printf("[sigengine] redis snapshot read error: %v", err)
	}

	if data == nil && svc.sqlReader != nil {
		data, err = svc.sqlReader.ReadLatestSnapshotJSON()
		if err != nil {
			log.Printf("[sigengine] sqlite snapshot read error: %v", err)
		}
	}

	if data != nil {
		if err := svc.registry.RestoreFromSnapshotJSON(data); err != nil {
			log.Printf("[sigengine] snapshot restore error: %v (cold start)", err)
		}
	}

	// Warm up from stored observations for any symbol still not ready.
	if svc.sqlReader == nil {
		return
	}
	warmed := 0
	for _, sym := range svc.registry.Instruments() {
		if svc.registry.HasReadySignals(sym) {
			continue
		}
		history, err := svc.sqlReader.ReadObservations(sym, 0)
		if err != nil {
			log.Printf("[sigengine] warm-up read error for %s: %v", sym, err)
			continue
		}
		for _, obs := range history {
			if err := svc.registry.Warm(obs); err == nil {
				warmed++
			}
		}
	}
	if warmed > 0 {
		log.Printf("[sigengine] warmed up indicators with %d historical observations", warmed)
	}
}
