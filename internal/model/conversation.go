// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"
)

// MaxMessages caps the transcript length. When exceeded, the oldest
// messages after the greeting are pruned to bound memory.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one chat transcript with metadata.
//
// ID is the backend's conversation id. The empty string marks the default
// conversation: the one the user lands in before the backend has assigned
// an id. Exactly one default conversation exists at any time; that
// invariant is enforced by the store, not here.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages[0] is always the localized greeting.
	Messages []*Message `json:"messages"`

	// Populated is true once the full transcript is present. Conversations
	// loaded from the server's list start with only the greeting; history
	// is fetched on first switch. Transient state, not persisted.
	Populated bool `json:"-"`
}

// New creates a conversation containing only the greeting.
func New(greeting string) *Conversation {
	now := time.Now()
	return &Conversation{
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []*Message{NewAssistantText(greeting)},
	}
}

// IsDefault reports whether the backend has not yet assigned an id.
func (c *Conversation) IsDefault() bool {
	return c.ID == ""
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Add appends a message and bumps the activity timestamp.
func (c *Conversation) Add(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.prune()
}

// Touch bumps the activity timestamp without changing the transcript.
// Switching to a conversation counts as activity for retention purposes.
func (c *Conversation) Touch() {
	c.UpdatedAt = time.Now()
}

// ByID returns the message with the given id, or nil.
func (c *Conversation) ByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Last returns the most recent message, or nil if somehow empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// EjectOptions removes every options message. The greeting at index 0 is
// not an options message and is never touched.
func (c *Conversation) EjectOptions() {
	kept := c.Messages[:0]
	for _, msg := range c.Messages {
		if msg.Kind != KindOptions {
			kept = append(kept, msg)
		}
	}
	c.Messages = kept
}

// HasStreaming reports whether any assistant message is still streaming.
func (c *Conversation) HasStreaming() bool {
	for _, msg := range c.Messages {
		if msg.Streaming {
			return true
		}
	}
	return false
}

// ServerIndex returns the position of the message among the entries the
// backend knows about: user and assistant messages, greeting excluded.
// Feedback is addressed by this index. Returns -1 when the message is not
// part of the server-visible transcript.
func (c *Conversation) ServerIndex(id string) int {
	idx := -1
	for i, msg := range c.Messages {
		if i == 0 {
			continue // greeting is client-side only
		}
		if msg.Kind != KindUser && msg.Kind != KindAssistant {
			continue
		}
		idx++
		if msg.ID == id {
			return idx
		}
	}
	return -1
}

// =============================================================================
// GREETING AND TITLE
// =============================================================================

// RefreshGreeting replaces the greeting text in place. Called on locale
// change; the greeting keeps its id and position.
func (c *Conversation) RefreshGreeting(greeting string) {
	if len(c.Messages) > 0 {
		c.Messages[0].Text = greeting
	}
}

// updateTitle derives a title from the first user message when the
// backend has not supplied one.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Kind == KindUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// SetTitle records a backend-assigned title.
func (c *Conversation) SetTitle(title string) {
	if title != "" {
		c.Title = title
	}
}

// DisplayTitle returns the title or fallback for untitled conversations.
func (c *Conversation) DisplayTitle(fallback string) string {
	if c.Title != "" {
		return c.Title
	}
	return fallback
}

// =============================================================================
// RETENTION
// =============================================================================

// InactiveSince reports whether the conversation has seen no activity
// since the cutoff.
func (c *Conversation) InactiveSince(cutoff time.Time) bool {
	return c.UpdatedAt.Before(cutoff)
}

// prune bounds the transcript. The greeting survives; everything else is
// dropped oldest-first.
func (c *Conversation) prune() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	greeting := c.Messages[0]
	tail := c.Messages[len(c.Messages)-(MaxMessages-1):]
	c.Messages = append([]*Message{greeting}, tail...)
}

// =============================================================================
// HELPERS
// =============================================================================

// Preview returns a short preview of the latest user prompt, or the
// greeting for an untouched conversation.
func (c *Conversation) Preview() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Kind == KindUser {
			return c.Messages[i].Preview(100)
		}
	}
	if len(c.Messages) > 0 {
		return c.Messages[0].Preview(100)
	}
	return ""
}

// Clone returns a deep copy. Used by tests and by export paths that must
// not race with the UI goroutine.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Populated: c.Populated,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		msgCopy.FilePaths = append([]string(nil), msg.FilePaths...)
		msgCopy.Options = append([]Option(nil), msg.Options...)
		clone.Messages[i] = &msgCopy
	}
	return clone
}
