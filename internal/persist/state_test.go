// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// STATE TESTS
// =============================================================================

func newTestState(t *testing.T) *State {
	t.Helper()
	state, err := NewState(NewMemoryStore())
	require.NoError(t, err)
	return state
}

func TestState_RatingWriteOnce(t *testing.T) {
	state := newTestState(t)

	_, ok := state.Rating("7", 2)
	require.False(t, ok)

	wrote, err := state.SetRating("7", 2, "bad")
	require.NoError(t, err)
	require.True(t, wrote)

	// A second rating for the same message is ignored.
	wrote, err = state.SetRating("7", 2, "good")
	require.NoError(t, err)
	require.False(t, wrote)

	r, ok := state.Rating("7", 2)
	require.True(t, ok)
	require.Equal(t, "bad", r)

	// Other messages and conversations are unaffected.
	wrote, err = state.SetRating("7", 3, "good")
	require.NoError(t, err)
	require.True(t, wrote)
	wrote, err = state.SetRating("8", 2, "good")
	require.NoError(t, err)
	require.True(t, wrote)
}

func TestState_ClearRatingReopensMessage(t *testing.T) {
	state := newTestState(t)

	wrote, err := state.SetRating("7", 2, "good")
	require.NoError(t, err)
	require.True(t, wrote)

	require.NoError(t, state.ClearRating("7", 2))
	_, ok := state.Rating("7", 2)
	require.False(t, ok)

	// The write-once rule applies to the fresh rating, not the cleared one.
	wrote, err = state.SetRating("7", 2, "bad")
	require.NoError(t, err)
	require.True(t, wrote)

	// Clearing an absent rating is a no-op.
	require.NoError(t, state.ClearRating("7", 9))
	require.NoError(t, state.ClearRating("missing", 0))
}

func TestState_BadPromptOncePerConversation(t *testing.T) {
	state := newTestState(t)

	require.False(t, state.BadPromptShown("7"))
	require.NoError(t, state.MarkBadPromptShown("7"))
	require.True(t, state.BadPromptShown("7"))
	require.False(t, state.BadPromptShown("8"))

	// Marking twice stays idempotent.
	require.NoError(t, state.MarkBadPromptShown("7"))
	require.True(t, state.BadPromptShown("7"))
}

func TestState_FilePaths(t *testing.T) {
	state := newTestState(t)

	require.Empty(t, state.FilePaths("7", "3"))

	require.NoError(t, state.AddFilePaths("7", "3", "docs/a.pdf", "docs/b.pdf"))
	require.NoError(t, state.AddFilePaths("7", "3", "docs/a.pdf")) // duplicate

	require.Equal(t, []string{"docs/a.pdf", "docs/b.pdf"}, state.FilePaths("7", "3"))

	// Positional bot keys live in the same namespace.
	require.Equal(t, "bot_2", BotKey(2))
	require.NoError(t, state.AddFilePaths("7", BotKey(2), "docs/c.pdf"))
	require.Equal(t, []string{"docs/c.pdf"}, state.FilePaths("7", BotKey(2)))

	require.NoError(t, state.ClearFilePaths("7"))
	require.Empty(t, state.FilePaths("7", "3"))
	require.Empty(t, state.FilePaths("7", BotKey(2)))
}

func TestState_SoftDelete(t *testing.T) {
	state := newTestState(t)

	require.False(t, state.IsDeleted("9"))
	require.NoError(t, state.MarkDeleted("9"))
	require.NoError(t, state.MarkDeleted("4"))
	require.True(t, state.IsDeleted("9"))

	require.Equal(t, []string{"4", "9"}, state.DeletedIDs())
}

func TestState_Locale(t *testing.T) {
	state := newTestState(t)

	require.Equal(t, "", state.Locale())
	require.NoError(t, state.SetLocale("kz"))
	require.Equal(t, "kz", state.Locale())
}

func TestState_RoundTripThroughFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	state, err := NewState(store)
	require.NoError(t, err)

	_, err = state.SetRating("7", 1, "good")
	require.NoError(t, err)
	require.NoError(t, state.MarkBadPromptShown("7"))
	require.NoError(t, state.AddFilePaths("7", "1", "a.pdf"))
	require.NoError(t, state.MarkDeleted("3"))
	require.NoError(t, state.SetLocale("ru"))
	require.NoError(t, store.Close())

	store2, err := OpenFileStore(path)
	require.NoError(t, err)
	defer store2.Close()
	restored, err := NewState(store2)
	require.NoError(t, err)

	r, ok := restored.Rating("7", 1)
	require.True(t, ok)
	require.Equal(t, "good", r)
	require.True(t, restored.BadPromptShown("7"))
	require.Equal(t, []string{"a.pdf"}, restored.FilePaths("7", "1"))
	require.True(t, restored.IsDeleted("3"))
	require.Equal(t, "ru", restored.Locale())
}
