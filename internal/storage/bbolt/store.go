// Package bbolt provides a BoltDB-backed player save store. Each player's
// full state is one JSON payload keyed by player id.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/storage"
)

const playerBucket = "player"

// Store provides a BoltDB-backed player store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SavePlayer persists a full player state record.
func (s *Store) SavePlayer(ctx context.Context, st *player.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if st == nil || strings.TrimSpace(st.PlayerID) == "" {
		return fmt.Errorf("player id is required")
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal player: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(playerBucket))
		if bucket == nil {
			return fmt.Errorf("player bucket is missing")
		}
		return bucket.Put([]byte(st.PlayerID), payload)
	})
}

// LoadPlayer fetches a player state record by id. Loaded saves run through
// state migration before returning so older payloads stay usable.
func (s *Store) LoadPlayer(ctx context.Context, playerID string) (*player.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, fmt.Errorf("player id is required")
	}

	var st player.State
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(playerBucket))
		if bucket == nil {
			return fmt.Errorf("player bucket is missing")
		}
		payload := bucket.Get([]byte(playerID))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &st); err != nil {
			return fmt.Errorf("unmarshal player: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	player.Migrate(&st)
	return &st, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(playerBucket))
		if err != nil {
			return fmt.Errorf("create player bucket: %w", err)
		}
		return nil
	})
}
