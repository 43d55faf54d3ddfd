package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hostguard/agent/internal/domain"
	"github.com/hostguard/agent/internal/metrics"
)

// Notifier delivers one rendered message to one recipient. Implementations
// own transport concerns (retries, timeouts); a returned error means the
// message did not reach that recipient this cycle.
type Notifier interface {
	Notify(ctx context.Context, recipient int64, text string) error
}

// Dispatcher fans an alert out to every configured recipient. Delivery is
// best-effort per recipient: one failure never blocks the rest, and failed
// deliveries are not retried within the cycle.
type Dispatcher struct {
	notifier   Notifier
	recipients []int64
	logger     *slog.Logger
}

func NewDispatcher(notifier Notifier, recipients []int64, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier:   notifier,
		recipients: recipients,
		logger:     logger,
	}
}

// Dispatch renders the alert once and sends it to each recipient,
// returning how many deliveries failed.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *domain.Alert) int {
	if len(d.recipients) == 0 {
		d.logger.Warn("no alert recipients configured, dropping alert",
			"alert_id", alert.ID, "source", alert.Kind)
		return 0
	}

	text := RenderAlert(alert)

	failed := 0
	for _, recipient := range d.recipients {
		if err := d.notifier.Notify(ctx, recipient, text); err != nil {
			failed++
			metrics.AlertDeliveriesFailed.Inc()
			d.logger.Error("alert delivery failed",
				"alert_id", alert.ID, "recipient", recipient, "err", err)
			continue
		}
		d.logger.Info("alert delivered",
			"alert_id", alert.ID, "recipient", recipient, "source", alert.Kind)
	}
	return failed
}

var sourceTitles = map[domain.SourceKind]string{
	domain.SourceFail2ban:     "Fail2Ban activity",
	domain.SourceSSHAuth:      "SSH authentication failures",
	domain.SourceFirewallDrop: "Firewall packet drops",
}

// RenderAlert formats an alert for the chat transport: a header, the
// observed-vs-threshold summary, the top contributing addresses and the most
// recent raw events.
func RenderAlert(alert *domain.Alert) string {
	var b strings.Builder

	title := sourceTitles[alert.Kind]
	if title == "" {
		title = string(alert.Kind)
	}

	fmt.Fprintf(&b, "🚨 High %s\n", title)
	fmt.Fprintf(&b, "%d events in the last %s (threshold %d)\n",
		alert.Count, alert.Window, alert.Threshold)

	if len(alert.TopEntries) > 0 {
		b.WriteString("\nTop sources:\n")
		for _, entry := range alert.TopEntries {
			fmt.Fprintf(&b, "• %s - %d\n", entry.Key, entry.Count)
		}
	}

	if len(alert.SampleEvents) > 0 {
		b.WriteString("\nRecent events:\n")
		for _, sample := range alert.SampleEvents {
			fmt.Fprintf(&b, "• %s\n", sample)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
