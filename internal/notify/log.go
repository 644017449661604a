package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It is the
// default sink for deployments without a message broker.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message at a level matching its severity.
func (n *LogNotifier) Notify(_ context.Context, message string, severity Severity) error {
	switch severity {
	case SeveritySpike, SeverityDrop:
		n.logger.Warn(message, zap.String("severity", string(severity)))
	default:
		n.logger.Info(message, zap.String("severity", string(severity)))
	}
	return nil
}
