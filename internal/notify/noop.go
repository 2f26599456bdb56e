package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded notifications. It is
// used when no notification backend is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards notifications with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// NotifyScored logs and discards a single notification.
func (n *NoOpNotifier) NotifyScored(_ context.Context, s *ScoredListing) error {
	n.log.Debug("notification discarded (no backend configured)",
		"listing", s.ListingID,
		"score", s.Score,
		"grade", s.Grade,
	)
	return nil
}

// NotifyBatch logs and discards a batch.
func (n *NoOpNotifier) NotifyBatch(_ context.Context, items []ScoredListing) error {
	n.log.Debug("batch notification discarded (no backend configured)",
		"count", len(items),
	)
	return nil
}
