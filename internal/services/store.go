package services

import (
	"context"
	"time"

	"bondbot-backend/internal/models"
)

// PairStateStore is the persistence contract the services depend on.
// Implemented by repository.PairStateRepository; test doubles implement
// it in-memory.
type PairStateStore interface {
	EnsurePair(ctx context.Context, pairID string) error
	TouchPresence(ctx context.Context, pairID string, device models.Device, now time.Time) error
	AppendInteraction(ctx context.Context, pairID string, record models.Interaction) error
	SetActivityDay(ctx context.Context, pairID string, device models.Device, day int) error
	MarkStaleOffline(ctx context.Context, staleBefore time.Time) error
}

// Publisher is the outbound pub/sub capability. Implemented by
// MQTTClient.
type Publisher interface {
	Publish(topic string, payload []byte) error
}
