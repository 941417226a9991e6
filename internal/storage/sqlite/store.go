// Package sqlite provides the SQLite-backed journal store: session history,
// agent memory and telemetry events, with per-player retention caps.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/louisbranch/innercity/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/innercity/internal/storage"
	"github.com/louisbranch/innercity/internal/storage/sqlite/migrations"
)

// Store persists journal records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendSession records one session and trims the player's history to the
// retention cap, oldest rows first.
func (s *Store) AppendSession(ctx context.Context, record storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	playerID := strings.TrimSpace(record.PlayerID)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	startedAt := record.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	var completedAt any
	if record.CompletedAt != nil {
		completedAt = toMillis(*record.CompletedAt)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (
		   player_id, district, emotion, intensity, started_at,
		   completed, completed_at, points_earned, level_id, act, microsteps_count
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playerID,
		record.District,
		record.Emotion,
		record.Intensity,
		toMillis(startedAt),
		record.Completed,
		completedAt,
		record.PointsEarned,
		record.LevelID,
		record.Act,
		record.MicrostepsCount,
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}

	return s.trim(ctx, "sessions", playerID, storage.SessionHistoryCap)
}

// ListSessions returns the player's most recent sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, playerID string, limit int) ([]storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}
	if limit <= 0 || limit > storage.SessionHistoryCap {
		limit = storage.SessionHistoryCap
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT player_id, district, emotion, intensity, started_at,
		        completed, completed_at, points_earned, level_id, act, microsteps_count
		   FROM sessions
		  WHERE player_id = ?
		  ORDER BY id DESC
		  LIMIT ?`,
		playerID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []storage.SessionRecord
	for rows.Next() {
		var record storage.SessionRecord
		var startedAt int64
		var completedAt sql.NullInt64
		if err := rows.Scan(
			&record.PlayerID,
			&record.District,
			&record.Emotion,
			&record.Intensity,
			&startedAt,
			&record.Completed,
			&completedAt,
			&record.PointsEarned,
			&record.LevelID,
			&record.Act,
			&record.MicrostepsCount,
		); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		record.StartedAt = fromMillis(startedAt)
		if completedAt.Valid {
			done := fromMillis(completedAt.Int64)
			record.CompletedAt = &done
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return records, nil
}

// AppendAgentMemory records one agent note and trims the player's memory to
// the retention cap.
func (s *Store) AppendAgentMemory(ctx context.Context, record storage.AgentMemoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	playerID := strings.TrimSpace(record.PlayerID)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(record.Content) == "" {
		return fmt.Errorf("content is required")
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO agent_memory (player_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		playerID,
		record.Role,
		record.Content,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("append agent memory: %w", err)
	}

	return s.trim(ctx, "agent_memory", playerID, storage.AgentMemoryCap)
}

// ListAgentMemory returns the player's most recent agent notes, newest first.
func (s *Store) ListAgentMemory(ctx context.Context, playerID string, limit int) ([]storage.AgentMemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}
	if limit <= 0 || limit > storage.AgentMemoryCap {
		limit = storage.AgentMemoryCap
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT player_id, role, content, created_at
		   FROM agent_memory
		  WHERE player_id = ?
		  ORDER BY id DESC
		  LIMIT ?`,
		playerID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list agent memory: %w", err)
	}
	defer rows.Close()

	var records []storage.AgentMemoryRecord
	for rows.Next() {
		var record storage.AgentMemoryRecord
		var createdAt int64
		if err := rows.Scan(&record.PlayerID, &record.Role, &record.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("list agent memory: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agent memory: %w", err)
	}
	return records, nil
}

// AppendTelemetryEvent records one operational event. Telemetry is
// append-only and uncapped.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.Kind) == "" {
		return fmt.Errorf("event kind is required")
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	attributes := "{}"
	if len(event.Attributes) > 0 {
		payload, err := json.Marshal(event.Attributes)
		if err != nil {
			return fmt.Errorf("marshal telemetry attributes: %w", err)
		}
		attributes = string(payload)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (event_id, player_id, kind, attributes, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.PlayerID,
		event.Kind,
		attributes,
		toMillis(occurredAt),
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// trim deletes a player's oldest rows beyond the retention cap.
func (s *Store) trim(ctx context.Context, table, playerID string, keep int) error {
	query := fmt.Sprintf(
		`DELETE FROM %s
		  WHERE player_id = ?
		    AND id NOT IN (
		      SELECT id FROM %s WHERE player_id = ? ORDER BY id DESC LIMIT ?
		    )`,
		table, table,
	)
	if _, err := s.sqlDB.ExecContext(ctx, query, playerID, playerID, keep); err != nil {
		return fmt.Errorf("trim %s: %w", table, err)
	}
	return nil
}

var (
	_ storage.JournalStore   = (*Store)(nil)
	_ storage.TelemetryStore = (*Store)(nil)
)
