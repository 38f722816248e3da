package gateway

import (
	"encoding/json"
	"strconv"
	"time"
)

// replayBufferSize is how many envelopes each channel retains for backfill.
const replayBufferSize = 500

// Broadcaster turns published decisions into wire envelopes and fans them
// out to subscribed clients.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a Broadcaster backed by the given Hub.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Broadcast wraps data in an envelope carrying the global and per-channel
// sequence numbers, retains it for gap backfill, and delivers it to every
// client whose subscriptions match the channel. The envelope is appended
// by hand rather than json.Marshal'd: this runs once per published
// decision across all clients.
func (b *Broadcaster) Broadcast(channel string, data []byte) {
	now := time.Now().UTC()

	// The payload's own ts is when the engine emitted the decision, so
	// now-ts is the end-to-end publish latency.
	if b.hub.Latency != nil {
		if emitted := extractTS(data); !emitted.IsZero() {
			ms := float64(now.Sub(emitted).Microseconds()) / 1000.0
			if ms >= 0 {
				b.hub.Latency.Record(ms)
			}
		}
	}

	b.hub.mu.Lock()
	b.hub.channelSeqs[channel]++
	channelSeq := b.hub.channelSeqs[channel]
	b.hub.latest[channel] = latestEntry{Data: data, TS: now, Seq: channelSeq}
	b.hub.seq++
	seq := b.hub.seq
	b.hub.mu.Unlock()

	buf := make([]byte, 0, len(channel)+len(data)+160)
	buf = append(buf, `{"channel":"`...)
	buf = append(buf, channel...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"channel_seq":`...)
	buf = strconv.AppendInt(buf, channelSeq, 10)
	buf = append(buf, '}')

	b.hub.mu.Lock()
	rb, ok := b.hub.replayBufs[channel]
	if !ok {
		rb = NewReplayBuffer(replayBufferSize)
		b.hub.replayBufs[channel] = rb
	}
	b.hub.mu.Unlock()
	rb.Push(channelSeq, buf)

	b.hub.mu.RLock()
	defer b.hub.mu.RUnlock()
	for client := range b.hub.clients {
		if !client.matchesChannel(channel) {
			continue
		}
		select {
		case client.send <- buf:
		default: // slow client, skip rather than stall the fan-out
		}
	}
}

// extractTS pulls the "ts" field from a decision payload.
func extractTS(data []byte) time.Time {
	var partial struct {
		TS time.Time `json:"ts"`
	}
	if err := json.Unmarshal(data, &partial); err == nil {
		return partial.TS
	}
	return time.Time{}
}
