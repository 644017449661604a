// Package notify delivers threshold-crossing decisions to a configured
// sink.
package notify

import (
	"context"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeveritySpike Severity = "spike"
	SeverityDrop  Severity = "drop"
)

// Notifier receives a formatted decision message. Delivery failures are
// the caller's to log and never roll back the already-committed history
// write.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity) error
}
