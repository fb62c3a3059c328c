// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// STORE CONFORMANCE TESTS
// =============================================================================

// runStoreConformance exercises the Store contract against any
// implementation.
func runStoreConformance(t *testing.T, store Store) {
	t.Helper()

	// Absent key
	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)

	// Round trip
	require.NoError(t, store.Set("k", []byte(`{"a":1}`)))
	v, ok, err := store.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"a":1}`, string(v))

	// Overwrite
	require.NoError(t, store.Set("k", []byte(`{"a":2}`)))
	v, _, err = store.Get("k")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2}`, string(v))

	// Delete, including absent keys
	require.NoError(t, store.Delete("k"))
	require.NoError(t, store.Delete("k"))
	_, ok, err = store.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_Conformance(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	runStoreConformance(t, store)
}

func TestFileStore_Conformance(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	defer store.Close()
	runStoreConformance(t, store)
}

func TestSQLiteStore_Conformance(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()
	runStoreConformance(t, store)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte(`"v"`)))
	require.NoError(t, store.Close())

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `"v"`, string(v))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte("v")))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(v))
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	require.ErrorIs(t, store.Set("k", nil), ErrClosed)
	_, _, err := store.Get("k")
	require.ErrorIs(t, err, ErrClosed)
}
