// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package persist provides durable client-side state: feedback already
// given, one-time prompt flags, attachment paths, soft-deleted
// conversations, and the selected locale.
//
// Storage goes through a small key-value port so the store logic stays
// testable: an in-memory map for tests, a JSON file, and the default
// SQLite database.
package persist

import "errors"

// =============================================================================
// KEY-VALUE PORT
// =============================================================================

// Store is the key-value port the typed State is built on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	// Set writes the value for key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
	// Close releases underlying resources.
	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("persist: store is closed")
