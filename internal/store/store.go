// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory conversation list and applies decoder
// events to it.
//
// Invariant: exactly one default conversation (empty server id) exists at
// all times. Promotion of the default conversation to a server id
// immediately appends a fresh default so the invariant never breaks.
//
// The store does no network or terminal I/O. Callers issue the HTTP
// requests and feed decoder events back in, addressed by the placeholder
// message id that Post returned. In-flight streams are not cancelled when
// the user switches conversations or creates a new one; events keep
// flowing into the conversation that owns the placeholder, wherever the
// user currently is.
package store

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/model"
	"github.com/askdesk/askdesk-tui/internal/persist"
)

// RetentionDays is how long an inactive saved conversation survives
// before pruning removes it.
const RetentionDays = 7

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound    = errors.New("conversation not found")
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrNotSaved    = errors.New("conversation has no server id yet")
	ErrStreaming   = errors.New("message is still streaming")
)

// =============================================================================
// STORE
// =============================================================================

// Store owns the conversation list and the active conversation.
// Safe for concurrent use; decoder events arrive from a stream goroutine
// while the UI reads.
type Store struct {
	mu     sync.Mutex
	state  *persist.State
	locale i18n.Locale

	// conversations are ordered oldest first; the newest is last.
	conversations []*model.Conversation
	active        *model.Conversation
}

// New creates a store with a single default conversation. The locale is
// restored from persisted state when available.
func New(state *persist.State) *Store {
	locale := i18n.Match(state.Locale())
	s := &Store{
		state:  state,
		locale: locale,
	}
	def := model.New(i18n.T(locale, i18n.KeyGreeting))
	s.conversations = []*model.Conversation{def}
	s.active = def
	return s
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Active returns the active conversation.
func (s *Store) Active() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Conversations returns the conversation list, oldest first.
func (s *Store) Conversations() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Locale returns the active locale.
func (s *Store) Locale() i18n.Locale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// =============================================================================
// LOCALE
// =============================================================================

// SetLocale switches the locale, persists it, and refreshes every
// conversation's greeting in place.
func (s *Store) SetLocale(locale i18n.Locale) error {
	if !locale.IsValid() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if locale == s.locale {
		return nil
	}
	s.locale = locale
	greeting := i18n.T(locale, i18n.KeyGreeting)
	for _, conv := range s.conversations {
		conv.RefreshGreeting(greeting)
	}
	return s.state.SetLocale(locale.String())
}

// RelabelOptions rewrites the labels of every visible options message
// using the supplied translation. Called after a locale change; canonical
// values are untouched.
func (s *Store) RelabelOptions(translate func(value string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.conversations {
		for _, msg := range conv.Messages {
			if msg.Kind != model.KindOptions {
				continue
			}
			for i := range msg.Options {
				msg.Options[i].Label = translate(msg.Options[i].Value)
			}
		}
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// NewConversation ensures the default conversation exists and is active.
// An empty active conversation is reset in place; an empty conversation
// elsewhere in the list is activated; otherwise a fresh default is
// appended. Returns the now-active conversation.
func (s *Store) NewConversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	greeting := i18n.T(s.locale, i18n.KeyGreeting)

	if s.active != nil && isEmpty(s.active) {
		s.resetLocked(s.active, greeting)
		return s.active
	}
	for _, conv := range s.conversations {
		if isEmpty(conv) {
			s.active = conv
			conv.Touch()
			return conv
		}
	}
	def := model.New(greeting)
	s.conversations = append(s.conversations, def)
	s.active = def
	return def
}

// Switch makes the conversation with the given id active. Streams already
// in flight are left running; their events still land in the conversation
// that owns their placeholder. Viewing a conversation does not bump
// UpdatedAt; only user-originated messages count toward retention.
func (s *Store) Switch(id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.ID == id {
		return s.active, nil
	}
	for _, conv := range s.conversations {
		if conv.ID == id {
			s.active = conv
			return conv, nil
		}
	}
	return nil, ErrNotFound
}

// Delete soft-deletes a conversation: the id is recorded so history
// reloads skip it, and the conversation leaves the in-memory list. When
// the active conversation is deleted, the newest survivor is activated,
// or a fresh default is created if none remain.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, conv := range s.conversations {
		if conv.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	if id != "" {
		if err := s.state.MarkDeleted(id); err != nil {
			return err
		}
	}
	wasActive := s.conversations[idx] == s.active
	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)

	s.ensureDefaultLocked()
	if wasActive {
		s.active = s.conversations[len(s.conversations)-1]
	}
	return nil
}

// PruneInactive removes saved conversations idle beyond the retention
// window, marking each soft-deleted. The default conversation is exempt
// regardless of age. Returns the pruned ids.
func (s *Store) PruneInactive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -RetentionDays)
	var pruned []string
	kept := s.conversations[:0]
	activePruned := false
	for _, conv := range s.conversations {
		if !conv.IsDefault() && conv.InactiveSince(cutoff) {
			// Best effort; a failed mark only means the conversation
			// reappears on the next reload.
			_ = s.state.MarkDeleted(conv.ID)
			pruned = append(pruned, conv.ID)
			if conv == s.active {
				activePruned = true
			}
			continue
		}
		kept = append(kept, conv)
	}
	s.conversations = kept

	s.ensureDefaultLocked()
	if activePruned {
		s.active = s.conversations[len(s.conversations)-1]
	}
	return pruned
}

// LoadSaved merges the server's conversation list, skipping soft-deleted
// ids and conversations already present. Loaded conversations start
// unpopulated; Populate fills their transcript on first switch.
func (s *Store) LoadSaved(list []api.ConversationSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	greeting := i18n.T(s.locale, i18n.KeyGreeting)
	existing := make(map[string]bool, len(s.conversations))
	for _, conv := range s.conversations {
		existing[conv.ID] = true
	}

	var loaded []*model.Conversation
	for _, item := range list {
		id := item.ID.String()
		if id == "" || existing[id] || s.state.IsDeleted(id) {
			continue
		}
		conv := model.New(greeting)
		conv.ID = id
		conv.SetTitle(item.Title)
		loaded = append(loaded, conv)
	}
	if len(loaded) == 0 {
		return
	}
	// Saved conversations are older than anything local.
	s.conversations = append(loaded, s.conversations...)
}

// Populate fills a loaded conversation's transcript from server history
// and reconciles locally stored feedback and attachment paths.
func (s *Store) Populate(id string, hist *api.ConversationHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.byIDLocked(id)
	if conv == nil {
		return ErrNotFound
	}
	if conv.Populated {
		return nil
	}

	greeting := conv.Messages[0]
	msgs := []*model.Message{greeting}
	botIndex := 0
	for i, entry := range hist.Messages {
		var msg *model.Message
		if entry.Type == "user" {
			msg = model.NewUserMessage(entry.Text)
		} else {
			msg = model.NewAssistantText(entry.Text)
			if rating, ok := s.state.Rating(id, i); ok {
				msg.Feedback = model.Feedback(rating)
			}
			paths := s.state.FilePaths(id, persist.BotKey(botIndex))
			if indexed := s.state.FilePaths(id, itoa(i)); len(indexed) > 0 {
				paths = indexed
			}
			msg.FilePaths = paths
			botIndex++
		}
		msgs = append(msgs, msg)
	}
	conv.Messages = msgs
	conv.SetTitle(hist.Title)
	conv.Populated = true
	return nil
}

// =============================================================================
// POSTING
// =============================================================================

// PostRequest describes the network request the caller must now issue.
type PostRequest struct {
	// ConversationID is the server id to include, empty for the default
	// conversation.
	ConversationID string
	// PlaceholderID addresses the assistant message decoder events are
	// applied to.
	PlaceholderID string
	Prompt        string
}

// Post appends the user's prompt and a streaming assistant placeholder to
// the active conversation. Option messages are ephemeral scaffolding and
// are ejected first. The placeholder id exists before any request is
// made, so events can always be routed even if the conversation's id
// changes mid-stream.
func (s *Store) Post(prompt string) (PostRequest, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return PostRequest{}, ErrEmptyPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.active
	conv.EjectOptions()
	conv.Add(model.NewUserMessage(prompt))
	placeholder := model.NewAssistantMessage()
	conv.Add(placeholder)

	return PostRequest{
		ConversationID: conv.ID,
		PlaceholderID:  placeholder.ID,
		Prompt:         prompt,
	}, nil
}

// ShowOptions appends an options message to the active conversation.
func (s *Store) ShowOptions(opts []model.Option) {
	if len(opts) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active.Add(model.NewOptionsMessage(opts))
}

// =============================================================================
// DECODER EVENTS
// =============================================================================

// ApplyEvent routes one decoder event to the placeholder message.
// Events for unknown placeholders are dropped: the conversation may have
// been deleted while the stream was in flight.
func (s *Store) ApplyEvent(placeholderID string, ev api.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, msg := s.findLocked(placeholderID)
	if msg == nil {
		return
	}

	switch ev.Type {
	case api.EventText, api.EventFinalText:
		msg.SetText(ev.Text)
	case api.EventMeta:
		s.applyMetaLocked(conv, msg, ev.Meta)
	case api.EventDone:
		msg.SetText(ev.Text)
		msg.FinishStream()
		conv.Touch()
	}
}

// applyMetaLocked handles a metadata record for the conversation owning
// the placeholder, not the active conversation, which may have changed
// since the request went out.
func (s *Store) applyMetaLocked(conv *model.Conversation, msg *model.Message, meta *api.Metadata) {
	if meta == nil {
		return
	}
	switch meta.Type {
	case "conversation":
		if id := meta.ConversationID.String(); id != "" && conv.ID == "" {
			conv.ID = id
			conv.Populated = true
			s.ensureDefaultLocked()
		}
		conv.SetTitle(meta.ConversationTitle)
	case "relevant_documents":
		paths := meta.Paths
		if len(paths) == 0 {
			for _, d := range meta.Documents {
				paths = append(paths, d.Path)
			}
		}
		msg.FilePaths = paths
		if conv.ID != "" {
			if idx := conv.ServerIndex(msg.ID); idx >= 0 {
				_ = s.state.AddFilePaths(conv.ID, itoa(idx), paths...)
			}
		}
	}
}

// FailStream finalizes a placeholder after a request or stream error.
// An empty placeholder is replaced by the localized error text; partial
// text is kept and the error is appended as a notice.
func (s *Store) FailStream(placeholderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, msg := s.findLocked(placeholderID)
	if msg == nil {
		return
	}
	errText := i18n.T(s.locale, i18n.KeyChatError)
	if msg.Text == "" {
		msg.SetText(errText)
	} else {
		conv.Add(model.NewNoticeMessage(errText))
	}
	msg.FinishStream()
}

// =============================================================================
// FEEDBACK
// =============================================================================

// FeedbackResult tells the caller what to do after a rating.
type FeedbackResult struct {
	// Applied is false when the message was already rated; nothing
	// changed and no request should be sent.
	Applied bool
	// ConversationID and MessageIndex address the rating server-side.
	ConversationID string
	MessageIndex   int
	// RegistrationPromptShown is true when a bad rating appended the
	// one-time registration prompt.
	RegistrationPromptShown bool
}

// SubmitFeedback records a rating for an assistant message. Ratings are
// idempotent: repeated ratings of the same message are ignored. A bad
// rating appends the registration prompt once per conversation.
func (s *Store) SubmitFeedback(messageID string, fb model.Feedback) (FeedbackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, msg := s.findLocked(messageID)
	if msg == nil {
		return FeedbackResult{}, ErrNotFound
	}
	if msg.Streaming {
		return FeedbackResult{}, ErrStreaming
	}
	if conv.ID == "" {
		return FeedbackResult{}, ErrNotSaved
	}
	idx := conv.ServerIndex(messageID)
	if msg.Kind != model.KindAssistant || idx < 0 {
		return FeedbackResult{}, ErrNotFound
	}

	if msg.Rated() {
		return FeedbackResult{ConversationID: conv.ID, MessageIndex: idx}, nil
	}
	wrote, err := s.state.SetRating(conv.ID, idx, string(fb))
	if err != nil {
		return FeedbackResult{}, err
	}
	if !wrote {
		// Persisted in an earlier run; mirror it on the message.
		if rating, ok := s.state.Rating(conv.ID, idx); ok {
			msg.Feedback = model.Feedback(rating)
		}
		return FeedbackResult{ConversationID: conv.ID, MessageIndex: idx}, nil
	}
	msg.Feedback = fb

	result := FeedbackResult{
		Applied:        true,
		ConversationID: conv.ID,
		MessageIndex:   idx,
	}
	if fb == model.FeedbackBad && !s.state.BadPromptShown(conv.ID) {
		conv.Add(model.NewNoticeMessage(i18n.T(s.locale, i18n.KeyBadFeedbackPrompt)))
		if err := s.state.MarkBadPromptShown(conv.ID); err == nil {
			result.RegistrationPromptShown = true
		}
	}
	return result, nil
}

// RevertFeedback rolls a rating back after the backend rejected it, so a
// later attempt is not blocked by the write-once rule. The registration
// prompt, if shown, stays; it is offered once per conversation regardless.
func (s *Store) RevertFeedback(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, msg := s.findLocked(messageID)
	if msg == nil || !msg.Rated() {
		return
	}
	idx := conv.ServerIndex(messageID)
	if idx < 0 {
		return
	}
	msg.Feedback = model.FeedbackNone
	_ = s.state.ClearRating(conv.ID, idx)
}

// =============================================================================
// INTERNAL
// =============================================================================

// isEmpty reports whether a conversation holds no user messages yet.
func isEmpty(conv *model.Conversation) bool {
	for _, msg := range conv.Messages {
		if msg.Kind == model.KindUser {
			return false
		}
	}
	return true
}

func (s *Store) resetLocked(conv *model.Conversation, greeting string) {
	conv.ID = ""
	conv.Title = ""
	conv.Populated = false
	conv.Messages = conv.Messages[:0]
	conv.Messages = append(conv.Messages, model.NewAssistantText(greeting))
	conv.Touch()
}

// ensureDefaultLocked restores the one-default invariant.
func (s *Store) ensureDefaultLocked() {
	for _, conv := range s.conversations {
		if conv.IsDefault() {
			return
		}
	}
	def := model.New(i18n.T(s.locale, i18n.KeyGreeting))
	s.conversations = append(s.conversations, def)
	if s.active == nil {
		s.active = def
	}
}

func (s *Store) byIDLocked(id string) *model.Conversation {
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// findLocked locates a message by id across all conversations.
func (s *Store) findLocked(messageID string) (*model.Conversation, *model.Message) {
	for _, conv := range s.conversations {
		if msg := conv.ByID(messageID); msg != nil {
			return conv, msg
		}
	}
	return nil, nil
}

func itoa(n int) string { return strconv.Itoa(n) }
