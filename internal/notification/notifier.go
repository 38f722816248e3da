// Package notification delivers alerts for executed decisions to external
// channels (webhook, Telegram) and to the log.
package notification

import (
	"context"
	"fmt"
	"log"
	"os"

	"volarbv1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans one alert out to several backends. Delivery failures are
// logged per backend; the first error is returned.
type Multi struct {
	backends []Notifier
}

// NewMulti creates a notifier over the given backends.
func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	var first error
	for _, n := range m.backends {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend delivery failed: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// FromEnv builds a notifier from environment configuration: the log backend
// always, a webhook backend when NOTIFY_WEBHOOK_URL is set, and a Telegram
// backend when TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are both set.
func FromEnv() Notifier {
	backends := []Notifier{NewLogNotifier()}
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); url != "" {
		backends = append(backends, NewWebhookNotifier(url))
		log.Printf("[notify] webhook backend enabled: %s", url)
	}
	if token, chat := os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"); token != "" && chat != "" {
		backends = append(backends, NewTelegramNotifier(token, chat))
		log.Println("[notify] telegram backend enabled")
	}
	return NewMulti(backends...)
}

// DecisionAlert builds the alert for an executed decision. Liquidations are
// warnings (they include stop-losses), entries informational.
func DecisionAlert(d model.Decision, qty float64) Alert {
	level := AlertInfo
	if d.Action == model.ActionLiquidate {
		level = AlertWarning
	}
	return Alert{
		Level:   level,
		Title:   fmt.Sprintf("%s %s", d.Action, d.Symbol),
		Message: fmt.Sprintf("qty %.4f at %.4f (%s)", qty, d.Price, d.Reason),
	}
}
