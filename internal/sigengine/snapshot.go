package sigengine

import (
	"context"
	"log"
	"time"
)

// snapshotLoop periodically saves registry state to Redis and SQLite.
func (svc *Service) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(svc.cfg.SnapshotIntervalS) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := svc.registry.SnapshotJSON()
			if err != nil {
				log.Printf("[sigengine] snapshot error: %v", err)
				continue
			}

			// Save to Redis
			if err := svc.redisReader.WriteSnapshotJSON(ctx, svc.cfg.SnapshotKey, data); err != nil {
				log.Printf("[sigengine] redis snapshot write error: %v", err)
			}

			// Save to SQLite
			if svc.sqlWriter != nil {
				if err := svc.sqlWriter.SaveSnapshotJSON(data); err != nil {
					log.Printf("[sigengine] sqlite snapshot write error: %v", err)
				}
			}

			log.Printf("[sigengine] checkpoint saved (%d instruments)", svc.registry.Len())
		}
	}
}
