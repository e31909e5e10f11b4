package services

import (
	"context"
	"fmt"
	"time"

	"bondbot-backend/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// PresenceTracker derives online/offline transitions from message
// arrival and from a periodic staleness sweep. The sweep is the only
// writer of online=false; message receipt is the only writer of
// online=true.
type PresenceTracker struct {
	store        PairStateStore
	offlineAfter time.Duration
	sweeper      *cron.Cron
}

// NewPresenceTracker creates a new presence tracker
func NewPresenceTracker(store PairStateStore, offlineAfter time.Duration) *PresenceTracker {
	return &PresenceTracker{
		store:        store,
		offlineAfter: offlineAfter,
	}
}

// RecordActivity refreshes a device's presence on message receipt.
// Transitions are level-triggered: repeated pings while already online
// still move last_seen forward.
func (t *PresenceTracker) RecordActivity(ctx context.Context, pairID string, device models.Device) error {
	if err := t.store.TouchPresence(ctx, pairID, device, time.Now()); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// Sweep marks every pair offline whose devices have gone quiet for
// longer than the offline threshold
func (t *PresenceTracker) Sweep(ctx context.Context, now time.Time) error {
	if err := t.store.MarkStaleOffline(ctx, now.Add(-t.offlineAfter)); err != nil {
		return fmt.Errorf("failed to sweep stale presence: %w", err)
	}
	return nil
}

// StartSweeper schedules Sweep on a fixed interval, independent of
// message traffic, until StopSweeper is called
func (t *PresenceTracker) StartSweeper(interval time.Duration) error {
	t.sweeper = cron.New()
	_, err := t.sweeper.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := t.Sweep(context.Background(), time.Now()); err != nil {
			log.Error().Err(err).Msg("Presence sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule presence sweep: %w", err)
	}

	t.sweeper.Start()
	log.Info().
		Dur("interval", interval).
		Dur("offline_after", t.offlineAfter).
		Msg("Presence sweeper started")
	return nil
}

// StopSweeper stops the periodic sweep
func (t *PresenceTracker) StopSweeper() {
	if t.sweeper != nil {
		t.sweeper.Stop()
	}
}
