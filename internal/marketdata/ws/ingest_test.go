package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"volarbv1/internal/model"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// feedServer serves /ws, sends the given raw messages to each connection,
// then closes it.
func feedServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestIngest_ReadsObservations(t *testing.T) {
	srv := feedServer(t, []string{
		`{"symbol":"SPY","price":431.55,"ts":"2026-08-28T14:05:00Z"}`,
		`not json`,
		`{"symbol":"","price":1}`,
		`{"symbol":"QQQ","price":380.25}`,
	})

	ing, err := New(Config{URL: wsURL(srv)})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obsCh := make(chan model.Observation, 16)
	if err := ing.runOnce(ctx, obsCh); err == nil {
		t.Fatal("runOnce should report the server-side disconnect")
	}

	var got []model.Observation
	for len(obsCh) > 0 {
		got = append(got, <-obsCh)
	}
	if len(got) != 2 {
		t.Fatalf("received %d observations, want 2 (bad JSON and empty symbol skipped)", len(got))
	}
	if got[0].Symbol != "SPY" || got[0].Price != 431.55 {
		t.Errorf("first observation = %+v", got[0])
	}
	if got[0].TS.IsZero() {
		t.Error("wire ts was dropped")
	}
	if got[1].Symbol != "QQQ" {
		t.Errorf("second observation = %+v", got[1])
	}
	if got[1].TS.IsZero() {
		t.Error("missing ts should be stamped with receive time")
	}
}

func TestIngest_WatcherExitsWithConnection(t *testing.T) {
	srv := feedServer(t, nil) // server closes each connection immediately

	ing, err := New(Config{URL: wsURL(srv)})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obsCh := make(chan model.Observation, 1)

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		if err := ing.runOnce(ctx, obsCh); err == nil {
			t.Fatal("runOnce should return an error when the server disconnects")
		}
	}

	// Each connection's watcher must exit when runOnce returns; allow a
	// moment for the last ones to unwind.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before+2 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("goroutines grew from %d to %d after 20 reconnects", before, runtime.NumGoroutine())
}
