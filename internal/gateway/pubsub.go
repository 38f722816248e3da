package gateway

import (
	"context"
	"log"

	"volarbv1/internal/model"
)

// PubSubRouter subscribes to the decision stream and routes messages to the
// broadcaster for fan-out to WebSocket clients.
type PubSubRouter struct {
	hub *Hub
}

// NewPubSubRouter creates a PubSubRouter backed by the given Hub.
func NewPubSubRouter(hub *Hub) *PubSubRouter {
	return &PubSubRouter{hub: hub}
}

// Run routes published decisions into the broadcaster until ctx is cancelled.
func (r *PubSubRouter) Run(ctx context.Context) {
	log.Println("[gateway] subscribed to decision pub/sub")

	err := r.hub.Store.SubscribeDecisions(ctx, func(d model.Decision) {
		r.hub.broadcast(d.PubSubChannel(), d.JSON())
	})
	if err != nil {
		log.Printf("[gateway] decision subscription ended: %v", err)
	}
}
