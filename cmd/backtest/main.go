// cmd/backtest replays historical observations from SQLite through the
// strategy registry to validate signals and the decision policy without a
// live feed.
//
// Usage:
//
//	go run ./cmd/backtest --speed=100 --symbols=SPY,QQQ --from=0
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"volarbv1/internal/execution"
	"volarbv1/internal/marketdata/replay"
	"volarbv1/internal/model"
	"volarbv1/internal/portfolio"
	sqlitestore "volarbv1/internal/store/sqlite"
	"volarbv1/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	// Flags
	speed := flag.Float64("speed", 0, "Playback speed multiplier (0=max, 1=realtime, 100=100x)")
	symbolsStr := flag.String("symbols", "SPY", "Comma-separated symbols to trade")
	fromTS := flag.Int64("from", 0, "Unix-milli timestamp to start replay from (0=all)")
	dbPath := flag.String("db", "data/observations.db", "Path to SQLite database")
	cash := flag.Float64("cash", 100000, "Starting cash")
	strategyCfg := flag.String("config", "", "Path to strategy YAML config (empty=defaults)")
	flag.Parse()

	symbols := parseSymbols(*symbolsStr)
	if len(symbols) == 0 {
		log.Fatal("[backtest] no valid symbols specified")
	}

	// Open SQLite
	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	// Build the strategy registry
	fileCfg, err := strategy.LoadFile(*strategyCfg)
	if err != nil {
		log.Fatalf("[backtest] strategy config: %v", err)
	}
	registry, err := strategy.NewRegistry(fileCfg.Engine, fileCfg.Indicators)
	if err != nil {
		log.Fatalf("[backtest] registry init failed: %v", err)
	}
	for _, sym := range symbols {
		if err := registry.Add(sym); err != nil {
			log.Fatalf("[backtest] add %s: %v", sym, err)
		}
	}

	pf, err := portfolio.New(*cash)
	if err != nil {
		log.Fatalf("[backtest] portfolio init failed: %v", err)
	}
	paper := execution.NewPaper(pf)

	// Setup context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Create replayer
	replayer := replay.New(reader)
	obsCh := make(chan model.Observation, 10000)

	// Replay in background
	go func() {
		if err := replayer.Run(ctx, *fromTS, *speed, obsCh); err != nil {
			log.Printf("[backtest] replay error: %v", err)
		}
		close(obsCh)
	}()

	// Process observations through the registry
	processed := 0
	decisions := 0
	for obs := range obsCh {
		if !registry.Has(obs.Symbol) {
			continue
		}
		pf.UpdatePrice(obs.Symbol, obs.Price)
		acct := model.AccountSnapshot{
			Position:      pf.Position(obs.Symbol),
			ExposureRatio: pf.ExposureRatio(),
		}
		d, err := registry.OnObservation(obs, acct)
		if err != nil {
			log.Printf("[backtest] evaluation error: %v", err)
			continue
		}
		processed++

		if d.Actionable() {
			decisions++
			if _, ok := paper.Execute(d); ok {
				fmt.Printf("  [%s] %s %s @ %.4f (%s)\n",
					obs.TS.Format("15:04:05"), d.Action, d.Symbol, d.Price, d.Reason)
			}
		}
	}

	// Print summary
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Observations:      %-16d ║\n", processed)
	fmt.Printf("║  Decisions:         %-16d ║\n", decisions)
	fmt.Printf("║  Fills:             %-16d ║\n", len(paper.Fills()))
	fmt.Printf("║  Final cash:        %-16.2f ║\n", pf.Cash())
	fmt.Printf("║  Final value:       %-16.2f ║\n", pf.TotalValue())
	fmt.Printf("║  Exposure:          %-16.4f ║\n", pf.ExposureRatio())
	fmt.Println("╚══════════════════════════════════════╝")
}

func parseSymbols(s string) []string {
	var symbols []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			symbols = append(symbols, p)
		}
	}
	return symbols
}
