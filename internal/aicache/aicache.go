// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package aicache persists AI resolver arbitration results across runs,
// keyed by a content hash of the two events' matching-relevant fields.
// Entries survive a clear-and-replace pipeline run; only a model-id change
// invalidates a cached entry.
package aicache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/dedupecore/eventdedupe/internal/models"
)

const entryKeyPrefix = "resolution:"

// ErrNotFound is returned when no cache entry exists for a content hash.
var ErrNotFound = errors.New("aicache: entry not found")

// Cache wraps a BadgerDB handle dedicated to AI resolution entries.
type Cache struct {
	db *badger.DB
}

// Open opens (creating if absent) a BadgerDB instance rooted at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("aicache: open badger at %q: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached resolution for contentHash, provided its ModelID
// matches modelID. A stale entry (model upgraded since caching) is treated
// as a miss, so a model change never serves a verdict from a retired model.
func (c *Cache) Get(contentHash, modelID string) (models.AIResolutionCacheEntry, error) {
	var entry models.AIResolutionCacheEntry

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(contentHash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return models.AIResolutionCacheEntry{}, err
	}

	if entry.ModelID != modelID {
		return models.AIResolutionCacheEntry{}, ErrNotFound
	}
	return entry, nil
}

// Put stores (or overwrites) the resolution for entry.ContentHash.
func (c *Cache) Put(entry models.AIResolutionCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("aicache: marshal entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.ContentHash), data)
	})
}

func entryKey(contentHash string) []byte {
	return []byte(entryKeyPrefix + contentHash)
}
