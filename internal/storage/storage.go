// Package storage defines the persistence contracts for player saves and
// the session/agent journal.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/innercity/internal/game/player"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Journal retention caps.
const (
	SessionHistoryCap = 50
	AgentMemoryCap    = 100
)

// SessionRecord is one completed or in-progress play session in the journal.
type SessionRecord struct {
	PlayerID        string     `json:"player_id"`
	District        string     `json:"district"`
	Emotion         string     `json:"emotion,omitempty"`
	Intensity       int        `json:"intensity,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	PointsEarned    int        `json:"points_earned,omitempty"`
	LevelID         string     `json:"level_id,omitempty"`
	Act             int        `json:"act,omitempty"`
	MicrostepsCount int        `json:"microsteps_count,omitempty"`
}

// AgentMemoryRecord is one note the conversational agent stored about a
// player.
type AgentMemoryRecord struct {
	PlayerID  string    `json:"player_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TelemetryEvent is one operational event.
type TelemetryEvent struct {
	ID         string            `json:"event_id,omitempty"`
	PlayerID   string            `json:"player_id,omitempty"`
	Kind       string            `json:"kind"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// PlayerStore persists full player state records.
type PlayerStore interface {
	SavePlayer(ctx context.Context, st *player.State) error
	LoadPlayer(ctx context.Context, playerID string) (*player.State, error)
}

// JournalStore persists capped session history and agent memory.
type JournalStore interface {
	AppendSession(ctx context.Context, record SessionRecord) error
	ListSessions(ctx context.Context, playerID string, limit int) ([]SessionRecord, error)
	AppendAgentMemory(ctx context.Context, record AgentMemoryRecord) error
	ListAgentMemory(ctx context.Context, playerID string, limit int) ([]AgentMemoryRecord, error)
}

// TelemetryStore records operational events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}
