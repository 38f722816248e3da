package sigengine

import (
	"context"
	"log"
	"log/slog"
	"time"

	"volarbv1/internal/logger"
	"volarbv1/internal/model"
	"volarbv1/internal/notification"
)

// evalLoop pops observations from the ring and runs the full evaluation pass:
// mark-to-market, account snapshot, strategy evaluation, paper execution,
// journaling, and decision publishing.  Single consumer by construction.
func (svc *Service) evalLoop(ctx context.Context) {
	for {
		obs, ok := svc.ring.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-svc.obsNotify:
			}
			continue
		}

		svc.prom.ObservationsTotal.Inc()
		svc.health.SetLastObsTime(obs.TS)

		if !svc.registry.Has(obs.Symbol) {
			continue // feed may carry symbols we don't trade
		}

		if !obs.Valid() {
			svc.prom.SkippedBadPrice.Inc()
			continue
		}

		svc.pf.UpdatePrice(obs.Symbol, obs.Price)

		// Account state is captured once, before any action from this pass.
		acct := model.AccountSnapshot{
			Position:      svc.pf.Position(obs.Symbol),
			ExposureRatio: svc.pf.ExposureRatio(),
		}

		start := time.Now()
		decision, err := svc.registry.OnObservation(obs, acct)
		svc.prom.EvalDur.Observe(time.Since(start).Seconds())
		if err != nil {
			log.Printf("[sigengine] evaluation error for %s: %v", obs.Symbol, err)
			continue
		}
		if !svc.registry.HasReadySignals(obs.Symbol) {
			svc.prom.SkippedNotReady.Inc()
		}

		svc.prom.DecisionsTotal.WithLabelValues(string(decision.Action)).Inc()
		if !decision.Actionable() {
			continue
		}

		tctx := logger.WithTraceID(ctx, logger.GenerateTraceID(obs.Symbol, obs.TS))
		attrs := []any{
			slog.String("symbol", decision.Symbol),
			slog.String("action", string(decision.Action)),
			slog.Float64("price", decision.Price),
			slog.Float64("size_fraction", decision.SizeFraction),
			slog.String("reason", decision.Reason),
		}
		slog.Info("decision emitted", append(attrs, logger.LogWithTrace(tctx)...)...)

		fill, executed := svc.paper.Execute(decision)
		if executed {
			if svc.journal != nil {
				if err := svc.journal.RecordFill(fill); err != nil {
					log.Printf("[sigengine] journal error: %v", err)
				}
			}
			// Alerts must never stall the evaluation loop.
			go func(alert notification.Alert) {
				nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := svc.notifier.Send(nctx, alert); err != nil {
					log.Printf("[sigengine] alert send error: %v", err)
				}
			}(notification.DecisionAlert(decision, fill.Qty))
		}
		svc.prom.Exposure.Set(svc.pf.ExposureRatio())

		if err := svc.buffered.PublishDecision(decision); err != nil {
			log.Printf("[sigengine] decision publish error: %v", err)
		}
	}
}
