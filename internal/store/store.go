// Package store persists the chat collection. The whole collection is
// serialized as one JSON value under a single key, mirroring a key-value
// storage boundary: get(key) -> collection or absent, set(key, collection).
// Persistence failures are contained here; in-memory state stays
// authoritative and the conversation is never interrupted by storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"companion-terminal/internal/logging"
	"companion-terminal/internal/models"
)

// ChatsKey is the storage key the collection lives under.
const ChatsKey = "shree_chats_v1"

type Store interface {
	// Load returns the persisted collection, or nil when absent. Corrupt
	// data is treated as absence, not a fatal error.
	Load(ctx context.Context) ([]models.Chat, error)

	// Save writes the full collection.
	Save(ctx context.Context, chats []models.Chat) error

	// EstimateUsage reports bytes used and the storage quota in bytes.
	// A zero quota means unreported, treated as unknown/unbounded.
	EstimateUsage() (used uint64, quota uint64)

	Close() error
}

type BadgerStore struct {
	db    *badger.DB
	quota uint64
}

func NewBadgerStore(dbPath string, quotaBytes uint64) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerStore{db: db, quota: quotaBytes}, nil
}

func (s *BadgerStore) Load(ctx context.Context) ([]models.Chat, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ChatsKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chats: %w", err)
	}

	var chats []models.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		logging.Error("discarding corrupt chat collection: %v", err)
		return nil, nil
	}
	return chats, nil
}

func (s *BadgerStore) Save(ctx context.Context, chats []models.Chat) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chats: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(ChatsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write chats: %w", err)
	}
	return nil
}

func (s *BadgerStore) EstimateUsage() (uint64, uint64) {
	lsm, vlog := s.db.Size()
	used := uint64(0)
	if lsm > 0 {
		used += uint64(lsm)
	}
	if vlog > 0 {
		used += uint64(vlog)
	}
	return used, s.quota
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
