package services

import (
	"context"
	"fmt"
	"time"

	"bondbot-backend/internal/models"
)

// InteractionLog appends a structured record of every inbound event
// and every mood classification to the pair's interaction history.
type InteractionLog struct {
	store PairStateStore
}

// NewInteractionLog creates a new interaction log
func NewInteractionLog(store PairStateStore) *InteractionLog {
	return &InteractionLog{store: store}
}

// Record appends one interaction. The kind is normalized against the
// closed set, with unrecognized kinds stored as UNKNOWN rather than
// rejected; no message kind is ever dropped from the log.
func (l *InteractionLog) Record(ctx context.Context, pairID string, record models.Interaction) error {
	record.Kind = models.NormalizeKind(string(record.Kind))
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if err := l.store.AppendInteraction(ctx, pairID, record); err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}
