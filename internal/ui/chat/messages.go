// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view of the askdesk TUI.
//
// This file defines all Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Catalog: category tree delivery
//   - Conversations: saved list and transcript history delivery
//   - Streaming: decoded answer events and stream completion
//   - Feedback: rating acknowledgements
//   - Registration: region list and submission results
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"github.com/askdesk/askdesk-tui/internal/api"
)

// =============================================================================
// CATALOG MESSAGES
// =============================================================================

// CatalogMsg delivers the category tree fetched at startup.
type CatalogMsg struct {
	Catalog *api.CategoriesResponse
	Error   error
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// SavedChatsMsg delivers the saved conversation list.
type SavedChatsMsg struct {
	List  []api.ConversationSummary
	Error error
}

// HistoryMsg delivers one conversation's transcript after a sidebar
// switch. ID addresses the conversation the history belongs to, not the
// one currently active.
type HistoryMsg struct {
	ID      string
	History *api.ConversationHistory
	Error   error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamEventMsg delivers one decoded event from an in-flight answer.
// PlaceholderID addresses the assistant message the event applies to.
type StreamEventMsg struct {
	PlaceholderID string
	Event         api.Event
}

// StreamDoneMsg signals that a stream finished, successfully or not.
type StreamDoneMsg struct {
	PlaceholderID string
	Error         error
}

// =============================================================================
// FEEDBACK MESSAGES
// =============================================================================

// FeedbackAckMsg reports the backend's response to a rating.
type FeedbackAckMsg struct {
	MessageID string
	Error     error
}

// =============================================================================
// REGISTRATION MESSAGES
// =============================================================================

// RegionsMsg delivers the region list for the registration form.
type RegionsMsg struct {
	Regions []string
	Error   error
}

// RegistrationSentMsg reports the outcome of a form submission.
type RegistrationSentMsg struct {
	Error error
}
