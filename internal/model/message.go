// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE KIND
// =============================================================================

// Kind discriminates message variants. Each kind owns its payload fields;
// a message never changes kind after creation.
type Kind string

const (
	// KindUser is a prompt typed or selected by the user.
	KindUser Kind = "user"
	// KindAssistant is an answer from the backend. It may still be
	// streaming; see Message.Streaming.
	KindAssistant Kind = "assistant"
	// KindOptions is a transient list of selectable prompts (categories,
	// FAQ entries). Options messages are ejected when the user posts.
	KindOptions Kind = "options"
	// KindNotice is client-generated informational text, such as the
	// one-time registration prompt after a bad rating.
	KindNotice Kind = "notice"
)

// =============================================================================
// FEEDBACK
// =============================================================================

// Feedback is the user's rating of one assistant message.
type Feedback string

const (
	FeedbackNone Feedback = ""
	FeedbackGood Feedback = "good"
	FeedbackBad  Feedback = "bad"
)

// =============================================================================
// OPTION
// =============================================================================

// Option is one selectable entry of a KindOptions message. Value is the
// canonical (Russian) label sent to the backend; Label is what the user
// sees and follows the active locale.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	// Leaf marks an option whose selection posts a prompt instead of
	// descending further in the navigation tree.
	Leaf bool `json:"leaf,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation transcript.
//
// The ID is generated before any network request is made, so streamed
// events can be addressed to the message they belong to even when the
// user switches conversations mid-flight.
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Text string `json:"text"`

	// Streaming marks an assistant message whose text is still arriving.
	// Transient state, not persisted.
	Streaming bool `json:"-"`

	// Assistant payload.
	Feedback  Feedback `json:"feedback,omitempty"`
	FilePaths []string `json:"file_paths,omitempty"`

	// Options payload.
	Options []Option `json:"options,omitempty"`
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Kind:      KindUser,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an empty streaming assistant message.
// The returned message is the placeholder the decoder writes into.
func NewAssistantMessage() *Message {
	return &Message{
		ID:        uuid.NewString(),
		Kind:      KindAssistant,
		Streaming: true,
		Timestamp: time.Now(),
	}
}

// NewAssistantText creates a completed assistant message, used when
// loading a saved transcript.
func NewAssistantText(text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Kind:      KindAssistant,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewOptionsMessage creates an options message.
func NewOptionsMessage(opts []Option) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Kind:      KindOptions,
		Options:   opts,
		Timestamp: time.Now(),
	}
}

// NewNoticeMessage creates a client-generated notice.
func NewNoticeMessage(text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Kind:      KindNotice,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// SetText replaces the message text. Used by the decoder, whose text
// deltas are cumulative.
func (m *Message) SetText(text string) {
	m.Text = text
}

// FinishStream marks a streaming assistant message as complete.
func (m *Message) FinishStream() {
	m.Streaming = false
}

// Rated reports whether feedback has already been recorded.
func (m *Message) Rated() bool {
	return m.Kind == KindAssistant && m.Feedback != FeedbackNone
}

// IsEmpty reports whether the message carries no text and no options.
func (m *Message) IsEmpty() bool {
	return m.Text == "" && len(m.Options) == 0
}

// Preview returns a single-line truncated preview of the message text.
// Rune-based so Cyrillic text truncates cleanly.
func (m *Message) Preview(maxLen int) string {
	text := strings.ReplaceAll(m.Text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
