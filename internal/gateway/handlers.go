package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"volarbv1/internal/execution"
	"volarbv1/internal/markethours"
	"volarbv1/internal/model"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers all HTTP routes on the provided mux. journal may
// be nil when the gateway runs without access to the fill journal.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, journal *execution.Journal, processStart time.Time) {
	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		lastTS := r.URL.Query().Get("last_ts")
		hub.HandleWSRequest(conn, lastTS)
	})

	// REST: last published decision per channel. The in-memory cache only
	// holds what arrived since this process started, so symbols missing
	// from it fall back to the store's latest-decision key.
	mux.HandleFunc("/api/decisions/latest", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		latest := hub.GetLatestAll()
		for _, sym := range hub.Symbols {
			ch := (&model.Decision{Symbol: sym}).PubSubChannel()
			if _, ok := latest[ch]; ok {
				continue
			}
			d, err := hub.Store.GetLatestDecision(r.Context(), sym)
			if err != nil || d == nil {
				continue
			}
			latest[ch] = d.JSON()
		}
		json.NewEncoder(w).Encode(latest)
	})

	// REST: decision history from the per-symbol Redis stream
	mux.HandleFunc("/api/decisions/history", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" && len(hub.Symbols) > 0 {
			symbol = hub.Symbols[0]
		}
		limit := 100
		if ls := r.URL.Query().Get("limit"); ls != "" {
			if l, err := strconv.Atoi(ls); err == nil && l > 0 && l <= 1000 {
				limit = l
			}
		}

		var before time.Time
		if beforeStr := r.URL.Query().Get("before"); beforeStr != "" {
			if t, err := time.Parse(time.RFC3339Nano, beforeStr); err == nil {
				before = t
			} else if t, err := time.Parse(time.RFC3339, beforeStr); err == nil {
				before = t
			}
		}

		decisions, err := hub.Store.ReadDecisions(r.Context(), symbol, before, int64(limit))
		if err != nil {
			decisions = nil
		}
		if decisions == nil {
			decisions = []model.Decision{}
		}
		json.NewEncoder(w).Encode(decisions)
	})

	// REST: missed-envelope backfill after a client detects a seq gap
	mux.HandleFunc("/api/missed", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		channel := r.URL.Query().Get("channel")
		from, _ := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
		to, _ := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
		if channel == "" || from <= 0 || to < from {
			http.Error(w, `{"error":"channel, from, to are required"}`, http.StatusBadRequest)
			return
		}

		envelopes := hub.GetReplayRange(channel, from, to)
		out := make([]json.RawMessage, len(envelopes))
		for i, e := range envelopes {
			out[i] = e
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"channel":     channel,
			"current_seq": hub.GetChannelSeq(channel),
			"envelopes":   out,
		})
	})

	// REST: executed fills from the journal
	mux.HandleFunc("/api/fills", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		if journal == nil {
			http.Error(w, `{"error":"journal not configured"}`, http.StatusNotFound)
			return
		}
		limit := 100
		if ls := r.URL.Query().Get("limit"); ls != "" {
			if l, err := strconv.Atoi(ls); err == nil && l > 0 && l <= 1000 {
				limit = l
			}
		}
		records, err := journal.GetRecords(limit)
		if err != nil {
			http.Error(w, `{"error":"journal read failed"}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(records)
	})

	// REST: tracked symbols
	mux.HandleFunc("/api/symbols", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Symbols)
	})

	// REST: status snapshot (resource usage + market session)
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		now := time.Now()
		m := CollectMetrics(processStart)
		if hub.Latency != nil {
			m.LatencyP50, m.LatencyP95, m.LatencyP99 = hub.Latency.Percentiles()
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"metrics":      m,
			"wsClients":    hub.ClientCount(),
			"marketOpen":   markethours.IsMarketOpen(now),
			"marketStatus": markethours.StatusString(now),
		})
	})

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		redisOK := true
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := hub.Store.Ping(ctx); err != nil {
			redisOK = false
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "ok",
			"redis":      redisOK,
			"ws_clients": hub.ClientCount(),
			"uptime_sec": int64(time.Since(processStart).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
