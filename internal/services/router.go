package services

import (
	"context"
	"encoding/json"
	"fmt"

	"bondbot-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// MessageRouter classifies inbound pub/sub payloads by message kind
// and fans them out to presence updates, the interaction log, and
// activity handling. It never publishes a reply; replies are emitted
// only by the mood analysis path.
type MessageRouter struct {
	presence *PresenceTracker
	logbook  *InteractionLog
	store    PairStateStore
}

// NewMessageRouter creates a new message router
func NewMessageRouter(presence *PresenceTracker, logbook *InteractionLog, store PairStateStore) *MessageRouter {
	return &MessageRouter{
		presence: presence,
		logbook:  logbook,
		store:    store,
	}
}

// sideEffect is one independent consequence of an inbound message
type sideEffect struct {
	name string
	run  func() error
}

// runAll executes each side effect, logging failures without
// short-circuiting siblings. A logging failure must not prevent a
// presence update from applying, and vice versa.
func runAll(pairID string, effects ...sideEffect) {
	for _, effect := range effects {
		if err := effect.run(); err != nil {
			log.Error().
				Err(err).
				Str("pair_id", pairID).
				Str("side_effect", effect.name).
				Msg("Message side effect failed")
		}
	}
}

// Handle processes one inbound pub/sub message. Messages without a
// pair_id are dropped before any state mutation.
func (r *MessageRouter) Handle(topic string, payload []byte) {
	ctx := context.Background()

	var msg models.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Dropping unparsable message")
		return
	}
	if msg.PairID == "" {
		log.Warn().Str("topic", topic).Str("type", msg.Type).Msg("Dropping message without pair_id")
		return
	}

	from := models.DeviceFromTag(msg.From)
	log.Info().
		Str("topic", topic).
		Str("type", msg.Type).
		Str("pair_id", msg.PairID).
		Str("from", string(from)).
		Msg("Message received")

	// The generic record carries the full raw payload, so unknown
	// types keep their original type string in the log.
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		data = nil
	}

	runAll(msg.PairID,
		sideEffect{"presence", func() error {
			return r.presence.RecordActivity(ctx, msg.PairID, from)
		}},
		sideEffect{"interaction_log", func() error {
			return r.logbook.Record(ctx, msg.PairID, models.Interaction{
				Kind:       models.InteractionKind(msg.Type),
				FromDevice: from,
				Data:       data,
			})
		}},
		sideEffect{"dispatch", func() error {
			return r.dispatch(ctx, msg, from)
		}},
	)
}

// dispatch applies the kind-specific effect of a message. Most kinds
// are observational beyond the generic log entry.
func (r *MessageRouter) dispatch(ctx context.Context, msg models.Message, from models.Device) error {
	switch models.InteractionKind(msg.Type) {
	case models.KindPresencePing, models.KindCheckinRequest, models.KindAudioMessage:
		// Audio classification is requested out-of-band over HTTP,
		// not from the pub/sub path.
		return nil

	case models.KindMoodResult:
		// Passthrough: the generic log entry is the only effect
		log.Info().
			Str("pair_id", msg.PairID).
			Str("mood", msg.Mood).
			Str("target", msg.Target).
			Msg("Mood result observed")
		return nil

	case models.KindActivityUpdate:
		if msg.Day == nil || *msg.Day < 0 || *msg.Day > 6 {
			log.Warn().
				Str("pair_id", msg.PairID).
				Interface("day", msg.Day).
				Msg("Ignoring activity update with invalid day")
			return nil
		}
		if err := r.store.SetActivityDay(ctx, msg.PairID, from, *msg.Day); err != nil {
			return fmt.Errorf("failed to apply activity update: %w", err)
		}
		return nil

	default:
		log.Info().Str("type", msg.Type).Msg("Unknown message type")
		return nil
	}
}
