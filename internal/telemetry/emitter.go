// Package telemetry records operational game events into the journal store.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/innercity/internal/storage"
)

// Event kinds emitted by the serving layer.
const (
	KindLevelStarted     = "level_started"
	KindNodeAdvanced     = "node_advanced"
	KindTaskCompleted    = "task_completed"
	KindCardUnlocked     = "card_unlocked"
	KindCardActivated    = "card_activated"
	KindBossSpawned      = "boss_spawned"
	KindBossDefeated     = "boss_defeated"
	KindSessionStarted   = "session_started"
	KindSessionCompleted = "session_completed"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records one event for a player. It is a no-op when the store is nil;
// failures are swallowed so telemetry never breaks gameplay.
func (e *Emitter) Emit(ctx context.Context, playerID, kind string, attributes map[string]string) {
	if e == nil || e.store == nil {
		return
	}
	now := time.Now().UTC()
	if e.clock != nil {
		now = e.clock().UTC()
	}
	_ = e.store.AppendTelemetryEvent(ctx, storage.TelemetryEvent{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		Kind:       kind,
		Attributes: attributes,
		OccurredAt: now,
	})
}
