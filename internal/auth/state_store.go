// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// StateStore persists anti-CSRF state parameters for the OAuth login flow in
// BadgerDB. State data survives server restarts, so a login started before a
// deploy still completes.
//
// A state moves through exactly one of two paths: issued then consumed, or
// issued then expired and swept. Consume deletes the row before inspecting
// it, so under concurrent callbacks exactly one consume wins; the conditional
// delete is the sole concurrency guard.
type StateStore struct {
	db  *badger.DB
	ttl time.Duration
}

// stateData is the persisted record for one issued state.
type stateData struct {
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expires_at"`
}

// stateKeyPrefix namespaces state rows in BadgerDB.
const stateKeyPrefix = "oauth_state:"

// NewStateStore opens a BadgerDB-backed state store at the given path.
func NewStateStore(path string, ttl time.Duration) (*StateStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	// State rows are tiny; keep the value log small.
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for oauth state: %w", err)
	}

	return &StateStore{db: db, ttl: ttl}, nil
}

// NewStateStoreFromDB wraps an existing BadgerDB connection.
func NewStateStoreFromDB(db *badger.DB, ttl time.Duration) *StateStore {
	return &StateStore{db: db, ttl: ttl}
}

// Issue generates a fresh state token for the provider and persists it with
// the configured TTL. The token carries 256 bits of entropy.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider cannot be empty")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(tokenBytes)

	record := stateData{
		Provider:  provider,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(stateKeyPrefix+state), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}

	return state, nil
}

// Consume validates and invalidates a state in one step. The row is deleted
// inside the same transaction that reads it, so a state can be consumed at
// most once even when it turns out to be expired or issued for another
// provider.
func (s *StateStore) Consume(ctx context.Context, state, provider string) error {
	if state == "" {
		return ErrStateNotFound
	}

	var record stateData

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(stateKeyPrefix + state)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStateNotFound
		}
		if err != nil {
			return fmt.Errorf("get state: %w", err)
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}

		// Delete unconditionally: a mismatched or expired state is burned,
		// not left around for a second attempt.
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}

	if record.Provider != provider {
		return ErrProviderMismatch
	}
	if time.Now().After(record.ExpiresAt) {
		return ErrStateExpired
	}
	return nil
}

// SweepExpired removes expired state rows. BadgerDB TTL handles most
// expiration; this is the explicit backstop run by the housekeeping service.
// Returns the number of rows removed.
func (s *StateStore) SweepExpired(ctx context.Context) (int, error) {
	var expiredKeys [][]byte
	now := time.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(stateKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var record stateData
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				// Corrupted entry, remove it too.
				expiredKeys = append(expiredKeys, append([]byte{}, item.Key()...))
				continue
			}

			if record.ExpiresAt.Before(now) {
				expiredKeys = append(expiredKeys, append([]byte{}, item.Key()...))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan for expired states: %w", err)
	}

	count := 0
	for _, key := range expiredKeys {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err == nil {
			count++
		}
	}

	return count, nil
}

// Count returns the number of active states. Used by tests and diagnostics.
func (s *StateStore) Count(ctx context.Context) (int, error) {
	count := 0
	now := time.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(stateKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record stateData
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				continue
			}
			if !record.ExpiresAt.Before(now) {
				count++
			}
		}
		return nil
	})

	return count, err
}

// RunGC runs BadgerDB value log garbage collection to reclaim space.
func (s *StateStore) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// Close closes the underlying BadgerDB connection.
func (s *StateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
