package notify

import (
	"context"

	"github.com/septivank/usage-delta-worker/internal/mq"
)

// QueueNotifier publishes notifications as usage alert events on a
// RabbitMQ topic exchange.
type QueueNotifier struct {
	publisher  *mq.Publisher
	routingKey string
	runID      string
	date       string
}

// NewQueueNotifier creates a queue-backed notifier. runID and date stamp
// every alert published for the run.
func NewQueueNotifier(publisher *mq.Publisher, routingKey, runID, date string) *QueueNotifier {
	return &QueueNotifier{
		publisher:  publisher,
		routingKey: routingKey,
		runID:      runID,
		date:       date,
	}
}

// Notify publishes the message as a UsageAlert event.
func (n *QueueNotifier) Notify(ctx context.Context, message string, severity Severity) error {
	return n.publisher.PublishUsageAlert(ctx, mq.UsageAlert{
		RunID:    n.runID,
		Date:     n.date,
		Severity: string(severity),
		Message:  message,
	}, n.routingKey)
}
