// file: internal/cache/pebble_test.go
// version: 1.0.0
// guid: 2a3b4c5d-e6f7-4a8b-9c0d-1e2f3a4b5c6d

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestPebble(t *testing.T) *PebbleStore {
	t.Helper()
	store, err := OpenPebble(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPebbleRoundTrip(t *testing.T) {
	store := openTestPebble(t)

	require.NoError(t, store.Set("isbn:9780134757599", []byte(`{"title":"Refactoring"}`), time.Hour))

	payload, expiresAt, err := store.Get("isbn:9780134757599")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Refactoring"}`, string(payload))
	assert.True(t, expiresAt.After(time.Now()))
}

func TestPebbleGetMissing(t *testing.T) {
	store := openTestPebble(t)

	_, _, err := store.Get("isbn:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPebbleDelete(t *testing.T) {
	store := openTestPebble(t)

	require.NoError(t, store.Set("search:abc", []byte(`{}`), time.Hour))
	require.NoError(t, store.Delete("search:abc"))

	_, _, err := store.Get("search:abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete("search:abc"))
}

func TestPebbleSweepExpired(t *testing.T) {
	store := openTestPebble(t)

	require.NoError(t, store.Set("search:fresh", []byte(`{}`), time.Hour))
	require.NoError(t, store.Set("search:stale", []byte(`{}`), -time.Minute))
	require.NoError(t, store.Set("isbn:stale", []byte(`{}`), -time.Hour))

	scanned, deleted, err := store.SweepExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, scanned)
	assert.Equal(t, 2, deleted)

	_, _, err = store.Get("search:fresh")
	assert.NoError(t, err)
	_, _, err = store.Get("search:stale")
	assert.ErrorIs(t, err, ErrNotFound)
}
