package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"bondbot-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PairStateRepository handles document store operations for pair state.
// Every mutation is an independent single-document partial update; the
// store's atomic document update is the only concurrency mechanism.
type PairStateRepository struct {
	coll *mongo.Collection
}

// NewPairStateRepository creates a new pair state repository
func NewPairStateRepository(coll *mongo.Collection) *PairStateRepository {
	return &PairStateRepository{coll: coll}
}

// pairIDIndex is the unique index on pair_id. It is what makes
// concurrent first-creation upserts collapse to one document: without
// it two racing EnsurePair calls can both take the insert path.
func pairIDIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}

// EnsureIndexes creates the collection's indexes. Must run before the
// first EnsurePair; index creation is idempotent.
func (r *PairStateRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.coll.Indexes().CreateOne(ctx, pairIDIndex()); err != nil {
		return fmt.Errorf("failed to create pair_id index: %w", err)
	}
	return nil
}

// deviceField maps a device to its document field. This is the only
// place the role-to-field translation exists.
func deviceField(device models.Device) string {
	if device == models.DeviceA {
		return "device_a"
	}
	return "device_b"
}

// EnsurePair creates the pair document with zeroed defaults if it does
// not exist. Idempotent and safe under concurrent callers: the upsert
// keys on pair_id, the unique index turns a first-creation race into a
// duplicate-key error on one side, and that error is treated as
// success.
func (r *PairStateRepository) EnsurePair(ctx context.Context, pairID string) error {
	now := time.Now()
	zero := bson.M{
		"last_seen":     now,
		"online":        false,
		"activity_days": bson.A{false, false, false, false, false, false, false},
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"device_a":     zero,
			"device_b":     zero,
			"interactions": bson.A{},
			"created_at":   now,
			"updated_at":   now,
		},
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"pair_id": pairID}, update,
		options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to ensure pair: %w", err)
	}
	return nil
}

// TouchPresence marks a device online and refreshes its last-seen time
func (r *PairStateRepository) TouchPresence(ctx context.Context, pairID string, device models.Device, now time.Time) error {
	field := deviceField(device)
	update := bson.M{
		"$set": bson.M{
			field + ".last_seen": now,
			field + ".online":    true,
			"updated_at":         now,
		},
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"pair_id": pairID}, update)
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

// AppendInteraction atomically appends one record to the interaction log
func (r *PairStateRepository) AppendInteraction(ctx context.Context, pairID string, record models.Interaction) error {
	update := bson.M{
		"$push": bson.M{"interactions": record},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"pair_id": pairID}, update)
	if err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

// SetActivityDay flags one weekday as active for a device. The day
// index is validated to 0-6 by the caller, not here.
func (r *PairStateRepository) SetActivityDay(ctx context.Context, pairID string, device models.Device, day int) error {
	field := deviceField(device)
	update := bson.M{
		"$set": bson.M{
			field + ".activity_days." + strconv.Itoa(day): true,
			"updated_at": time.Now(),
		},
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"pair_id": pairID}, update)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return nil
}

// MarkStaleOffline clears the online flag of both devices for every
// pair where either device has not been seen since staleBefore. The
// pair is considered down as a unit when either side drops.
func (r *PairStateRepository) MarkStaleOffline(ctx context.Context, staleBefore time.Time) error {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"device_a.last_seen": bson.M{"$lt": staleBefore}},
			bson.M{"device_b.last_seen": bson.M{"$lt": staleBefore}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"device_a.online": false,
			"device_b.online": false,
		},
	}

	_, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark stale devices offline: %w", err)
	}
	return nil
}
