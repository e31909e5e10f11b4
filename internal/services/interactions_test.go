package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bondbot-backend/internal/models"
)

func TestInteractionLog_Record(t *testing.T) {
	store := &fakeStore{}
	logbook := NewInteractionLog(store)

	err := logbook.Record(context.Background(), "pair01", models.Interaction{
		Kind:       models.KindCheckinRequest,
		FromDevice: models.DeviceA,
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	if len(store.appends) != 1 {
		t.Fatalf("appends = %d, want 1", len(store.appends))
	}
	rec := store.appends[0].record
	if rec.Kind != models.KindCheckinRequest {
		t.Errorf("kind = %q", rec.Kind)
	}
	if rec.Timestamp.IsZero() {
		t.Error("timestamp should be defaulted")
	}
}

func TestInteractionLog_NormalizesUnknownKind(t *testing.T) {
	store := &fakeStore{}
	logbook := NewInteractionLog(store)

	err := logbook.Record(context.Background(), "pair01", models.Interaction{
		Kind:       models.InteractionKind("WEIRD_TYPE"),
		FromDevice: models.DeviceB,
		Timestamp:  time.Now(),
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	if got := store.appends[0].record.Kind; got != models.KindUnknown {
		t.Errorf("kind = %q, want UNKNOWN", got)
	}
}

func TestInteractionLog_StoreFailure(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("store unavailable")}
	logbook := NewInteractionLog(store)

	err := logbook.Record(context.Background(), "pair01", models.Interaction{
		Kind: models.KindPresencePing,
	})
	if err == nil {
		t.Error("expected error from failing store")
	}
}
