// file: internal/cache/pebble.go
// version: 1.0.0
// guid: d5e6f7a8-b9c0-4d1e-8f2a-3b4c5d6e7f8a

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble/v2"
)

// ErrNotFound is returned when a key has no cold-tier entry.
var ErrNotFound = errors.New("cache: key not found")

// coldEntry is the envelope written to the cold tier. Pebble's own
// compaction is not TTL-aware, so the expiry travels with the payload and
// expired entries are lazily deleted on read.
type coldEntry struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// PebbleStore implements the cold cache tier on PebbleDB (LSM key-value
// store): higher capacity and slower than the hot tier.
//
// Key Schema:
// - search:<sha256 of normalized search params> -> coldEntry JSON
// - isbn:<normalized identifier>                -> coldEntry JSON
// - author:<sha256 of normalized author name>   -> coldEntry JSON
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) the cold tier at the given path.
func OpenPebble(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Get returns the stored payload and its recorded expiry. The expiry is
// returned rather than enforced; the tiered resolver decides eviction.
func (s *PebbleStore) Get(key string) ([]byte, time.Time, error) {
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("cold tier get %s: %w", key, err)
	}
	defer closer.Close()

	var e coldEntry
	if err := json.Unmarshal(value, &e); err != nil {
		return nil, time.Time{}, fmt.Errorf("cold tier decode %s: %w", key, err)
	}
	payload := make([]byte, len(e.Payload))
	copy(payload, e.Payload)
	return payload, e.ExpiresAt, nil
}

// Set writes a payload with the full TTL recorded in the entry envelope.
func (s *PebbleStore) Set(key string, payload []byte, ttl time.Duration) error {
	e := coldEntry{
		ExpiresAt: time.Now().Add(ttl),
		Payload:   json.RawMessage(payload),
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cold tier encode %s: %w", key, err)
	}
	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("cold tier set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (s *PebbleStore) Delete(key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("cold tier delete %s: %w", key, err)
	}
	return nil
}

// SweepExpired walks every entry and deletes those whose recorded expiry
// has passed. The read path already evicts lazily; this is the eager
// counterpart for reclaiming space in bulk. It returns the number of
// entries scanned and deleted.
func (s *PebbleStore) SweepExpired(now time.Time) (scanned, deleted int, err error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("cold tier sweep: %w", err)
	}
	defer iter.Close()

	var expired [][]byte
	for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
		scanned++
		var e coldEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			// Undecodable entries are unusable; reclaim them too.
			expired = append(expired, append([]byte(nil), iter.Key()...))
			continue
		}
		if now.After(e.ExpiresAt) {
			expired = append(expired, append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Error(); err != nil {
		return scanned, 0, fmt.Errorf("cold tier sweep: %w", err)
	}

	for _, key := range expired {
		if err := s.db.Delete(key, pebble.Sync); err != nil {
			return scanned, deleted, fmt.Errorf("cold tier sweep delete %s: %w", key, err)
		}
		deleted++
	}
	return scanned, deleted, nil
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
