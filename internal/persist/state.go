// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Storage keys. The names follow the reference widget's localStorage keys
// so the layouts stay recognizable when debugging a state file.
const (
	keyFeedback  = "chat_feedback_state"
	keyBadPrompt = "chat_bad_feedback_prompt"
	keyFilePaths = "chat_file_paths"
	keyDeleted   = "chat_deleted_chats"
	keyLocale    = "chat_locale"
)

// =============================================================================
// TYPED STATE
// =============================================================================

// State is the typed view over a Store. It caches every map in memory and
// writes through on mutation. Safe for concurrent use.
type State struct {
	mu    sync.Mutex
	store Store

	// conversation id -> message index (as decimal string) -> rating
	feedback map[string]map[string]string
	// conversation id -> registration prompt already shown
	badPrompt map[string]bool
	// conversation id -> message index or "bot_N" token -> file paths
	filePaths map[string]map[string][]string
	// soft-deleted conversation ids
	deleted map[string]bool
	// selected locale ("" = not chosen yet)
	locale string
}

// NewState loads all persisted maps from the store.
func NewState(store Store) (*State, error) {
	s := &State{
		store:     store,
		feedback:  make(map[string]map[string]string),
		badPrompt: make(map[string]bool),
		filePaths: make(map[string]map[string][]string),
		deleted:   make(map[string]bool),
	}
	if err := loadJSON(store, keyFeedback, &s.feedback); err != nil {
		return nil, err
	}
	if err := loadJSON(store, keyBadPrompt, &s.badPrompt); err != nil {
		return nil, err
	}
	if err := loadJSON(store, keyFilePaths, &s.filePaths); err != nil {
		return nil, err
	}
	if err := loadJSON(store, keyDeleted, &s.deleted); err != nil {
		return nil, err
	}
	if raw, ok, err := store.Get(keyLocale); err != nil {
		return nil, err
	} else if ok {
		// Tolerate both a bare string and a JSON-quoted one.
		if err := json.Unmarshal(raw, &s.locale); err != nil {
			s.locale = string(raw)
		}
	}
	return s, nil
}

func loadJSON(store Store, key string, out any) error {
	raw, ok, err := store.Get(key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// Corrupt entry: discard it and start that map fresh.
		return nil
	}
	return nil
}

func (s *State) saveLocked(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.store.Set(key, raw); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// FEEDBACK
// =============================================================================

// Rating returns the stored rating for a message, if any.
func (s *State) Rating(chatID string, index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.feedback[chatID][strconv.Itoa(index)]
	return r, ok
}

// SetRating records a rating. Ratings are write-once: a second rating for
// the same message is ignored and reported via the false return.
func (s *State) SetRating(chatID string, index int, rating string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := strconv.Itoa(index)
	if _, exists := s.feedback[chatID][idx]; exists {
		return false, nil
	}
	if s.feedback[chatID] == nil {
		s.feedback[chatID] = make(map[string]string)
	}
	s.feedback[chatID][idx] = rating
	return true, s.saveLocked(keyFeedback, s.feedback)
}

// ClearRating removes a stored rating so the message can be rated again.
// Used to roll back a rating whose delivery to the backend failed.
func (s *State) ClearRating(chatID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := strconv.Itoa(index)
	if _, exists := s.feedback[chatID][idx]; !exists {
		return nil
	}
	delete(s.feedback[chatID], idx)
	if len(s.feedback[chatID]) == 0 {
		delete(s.feedback, chatID)
	}
	return s.saveLocked(keyFeedback, s.feedback)
}

// =============================================================================
// BAD-FEEDBACK PROMPT
// =============================================================================

// BadPromptShown reports whether the registration prompt was already
// offered in this conversation.
func (s *State) BadPromptShown(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badPrompt[chatID]
}

// MarkBadPromptShown records that the prompt has been offered. At most one
// prompt per conversation, ever.
func (s *State) MarkBadPromptShown(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.badPrompt[chatID] {
		return nil
	}
	s.badPrompt[chatID] = true
	return s.saveLocked(keyBadPrompt, s.badPrompt)
}

// =============================================================================
// FILE PATHS
// =============================================================================

// BotKey builds the positional key used when a message index is not known
// at save time, only the answer's ordinal among assistant messages.
func BotKey(botIndex int) string {
	return "bot_" + strconv.Itoa(botIndex)
}

// FilePaths returns the attachment paths stored under a message key.
func (s *State) FilePaths(chatID, key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := s.filePaths[chatID][key]
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

// AddFilePaths appends attachment paths under a message key, skipping
// duplicates.
func (s *State) AddFilePaths(chatID, key string, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filePaths[chatID] == nil {
		s.filePaths[chatID] = make(map[string][]string)
	}
	existing := s.filePaths[chatID][key]
	for _, p := range paths {
		dup := false
		for _, e := range existing {
			if e == p {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, p)
		}
	}
	s.filePaths[chatID][key] = existing
	return s.saveLocked(keyFilePaths, s.filePaths)
}

// ClearFilePaths drops all stored paths for a conversation.
func (s *State) ClearFilePaths(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.filePaths[chatID]; !ok {
		return nil
	}
	delete(s.filePaths, chatID)
	return s.saveLocked(keyFilePaths, s.filePaths)
}

// =============================================================================
// SOFT-DELETED CONVERSATIONS
// =============================================================================

// IsDeleted reports whether the conversation was soft-deleted locally.
func (s *State) IsDeleted(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleted[chatID]
}

// MarkDeleted soft-deletes a conversation. The backend keeps it; the
// client filters it out of every listing from now on.
func (s *State) MarkDeleted(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted[chatID] {
		return nil
	}
	s.deleted[chatID] = true
	return s.saveLocked(keyDeleted, s.deleted)
}

// DeletedIDs returns the soft-deleted conversation ids, sorted.
func (s *State) DeletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.deleted))
	for id := range s.deleted {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// =============================================================================
// LOCALE
// =============================================================================

// Locale returns the persisted locale, or "" when never chosen.
func (s *State) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// SetLocale persists the selected locale.
func (s *State) SetLocale(locale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locale == locale {
		return nil
	}
	s.locale = locale
	return s.saveLocked(keyLocale, locale)
}
