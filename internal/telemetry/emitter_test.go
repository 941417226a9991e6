package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/innercity/internal/storage"
)

type fakeTelemetryStore struct {
	events []storage.TelemetryEvent
	err    error
}

func (f *fakeTelemetryStore) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestEmit(t *testing.T) {
	store := &fakeTelemetryStore{}
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	emitter := NewEmitter(store)
	emitter.clock = func() time.Time { return now }

	emitter.Emit(context.Background(), "p1", KindLevelStarted, map[string]string{"district": "oasis"})

	if len(store.events) != 1 {
		t.Fatalf("events = %d", len(store.events))
	}
	event := store.events[0]
	if event.PlayerID != "p1" || event.Kind != KindLevelStarted {
		t.Fatalf("event = %+v", event)
	}
	if !event.OccurredAt.Equal(now) {
		t.Fatalf("occurred at = %v", event.OccurredAt)
	}
	if event.Attributes["district"] != "oasis" {
		t.Fatalf("attributes = %v", event.Attributes)
	}
	if event.ID == "" {
		t.Fatal("expected a generated event id")
	}
}

func TestEmitEventIDsAreUnique(t *testing.T) {
	store := &fakeTelemetryStore{}
	emitter := NewEmitter(store)

	emitter.Emit(context.Background(), "p1", KindNodeAdvanced, nil)
	emitter.Emit(context.Background(), "p1", KindNodeAdvanced, nil)

	if store.events[0].ID == store.events[1].ID {
		t.Fatalf("ids collide: %s", store.events[0].ID)
	}
}

func TestEmitNilSafe(t *testing.T) {
	var emitter *Emitter
	emitter.Emit(context.Background(), "p1", KindBossSpawned, nil)

	NewEmitter(nil).Emit(context.Background(), "p1", KindBossSpawned, nil)
}

func TestEmitSwallowsStoreErrors(t *testing.T) {
	store := &fakeTelemetryStore{err: errors.New("disk full")}
	NewEmitter(store).Emit(context.Background(), "p1", KindTaskCompleted, nil)
}
