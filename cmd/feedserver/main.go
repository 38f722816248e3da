// cmd/feedserver — Demo WebSocket price feed.
// Broadcasts simulated observations for running sigengine without a real
// market data subscription.
//
// Message JSON shape is identical to model.Observation:
//
//	{"symbol":"SPY","price":431.55,"ts":"..."}
//
// Config (env vars):
//
//	FEED_SERVER_ADDR  — listen address  (default: ":9001")
//	FEED_SYMBOLS      — comma-separated SYMBOL:PRICE pairs (default: "SPY:430")
//	FEED_INTERVAL_MS  — broadcast interval milliseconds (default: "100")
//	FEED_MARKET_HOURS — only emit during the US equities session (default: "false")
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"volarbv1/config"
	"volarbv1/internal/markethours"
)

// obsMsg mirrors model.Observation for JSON serialisation.
type obsMsg struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"`
}

// instrument holds per-symbol simulation state.
type instrument struct {
	Symbol string
	Price  float64 // current simulated price
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop observation
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[feedserver] upgrade error: %v", err)
			return
		}
		log.Printf("[feedserver] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[feedserver] client disconnected: %s", r.RemoteAddr)
		}()

		// Write pump: sends observation JSON to this client.
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// ─── Price generator ─────────────────────────────────────────────────────────

// walkPrice applies a tiny random walk (±0.1%) to simulate price movement.
func walkPrice(price float64) float64 {
	pct := (rand.Float64()*0.2 - 0.1) / 100.0
	newPrice := price * (1 + pct)
	if newPrice < 0.01 {
		newPrice = 0.01
	}
	return newPrice
}

func runGenerator(h *hub, instruments []instrument, intervalMs int, marketHours bool) {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	sessionClosed := false
	for range ticker.C {
		if marketHours && !markethours.IsMarketOpen(time.Now()) {
			if !sessionClosed {
				sessionClosed = true
				log.Printf("[feedserver] market closed, pausing feed (%s)", markethours.StatusString(time.Now()))
			}
			continue
		}
		if sessionClosed {
			sessionClosed = false
			log.Println("[feedserver] market open, resuming feed")
		}
		for i := range instruments {
			instruments[i].Price = walkPrice(instruments[i].Price)
			msg := obsMsg{
				Symbol: instruments[i].Symbol,
				Price:  instruments[i].Price,
				TS:     time.Now().UTC(),
			}
			b, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			h.broadcast(b)
		}
	}
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[feedserver] starting demo price feed...")

	// Config
	addr := config.GetEnv("FEED_SERVER_ADDR", ":9001")
	symbolsEnv := config.GetEnv("FEED_SYMBOLS", "SPY:430")
	intervalMs := config.GetEnvInt("FEED_INTERVAL_MS", 100)
	marketHours := config.GetEnvBool("FEED_MARKET_HOURS", false)

	// Parse SYMBOL:PRICE pairs
	instruments := parseInstruments(symbolsEnv)
	if len(instruments) == 0 {
		log.Fatalf("[feedserver] no instruments configured via FEED_SYMBOLS")
	}
	log.Printf("[feedserver] instruments: %+v", instruments)
	log.Printf("[feedserver] broadcast interval: %dms", intervalMs)
	if marketHours {
		log.Println("[feedserver] market-hours gating enabled (US equities session)")
	}

	h := newHub()

	// Start price generator
	go runGenerator(h, instruments, intervalMs, marketHours)

	// HTTP routes
	http.HandleFunc("/ws", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"feedserver"}`)
	})

	log.Printf("[feedserver] listening on %s  (WebSocket: ws://localhost%s/ws)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[feedserver] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func parseInstruments(s string) []instrument {
	var result []instrument
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		seg := strings.SplitN(part, ":", 2)
		sym := strings.TrimSpace(seg[0])
		if sym == "" {
			log.Printf("[feedserver] skipping invalid symbol spec: %q", part)
			continue
		}
		price := 100.0
		if len(seg) == 2 {
			if p, err := strconv.ParseFloat(strings.TrimSpace(seg[1]), 64); err == nil && p > 0 {
				price = p
			}
		}
		result = append(result, instrument{Symbol: sym, Price: price})
	}
	return result
}
