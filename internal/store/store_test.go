// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/model"
	"github.com/askdesk/askdesk-tui/internal/persist"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	state, err := persist.NewState(persist.NewMemoryStore())
	require.NoError(t, err)
	return New(state)
}

func countDefaults(s *Store) int {
	n := 0
	for _, conv := range s.Conversations() {
		if conv.IsDefault() {
			n++
		}
	}
	return n
}

// promote streams a conversation id onto the placeholder's conversation.
func promote(s *Store, placeholderID, convID, title string) {
	s.ApplyEvent(placeholderID, api.Event{
		Type: api.EventMeta,
		Meta: &api.Metadata{
			Type:              "conversation",
			ConversationID:    api.FlexID(convID),
			ConversationTitle: title,
		},
	})
}

func finish(s *Store, placeholderID, text string) {
	s.ApplyEvent(placeholderID, api.Event{Type: api.EventText, Text: text})
	s.ApplyEvent(placeholderID, api.Event{Type: api.EventDone, Text: text})
}

// =============================================================================
// DEFAULT CONVERSATION INVARIANT
// =============================================================================

func TestStore_StartsWithSingleDefault(t *testing.T) {
	s := newTestStore(t)

	require.Equal(t, 1, countDefaults(s))
	require.True(t, s.Active().IsDefault())

	// The default conversation opens with the greeting.
	msgs := s.Active().Messages
	require.Len(t, msgs, 1)
	require.Equal(t, i18n.T(i18n.LocaleRU, i18n.KeyGreeting), msgs[0].Text)
}

func TestStore_DefaultInvariantAcrossLifecycle(t *testing.T) {
	s := newTestStore(t)

	// New on an empty default resets in place, never duplicates.
	first := s.Active()
	require.Same(t, first, s.NewConversation())
	require.Equal(t, 1, countDefaults(s))

	// Promotion consumes the default and a fresh one appears.
	req, err := s.Post("вопрос")
	require.NoError(t, err)
	promote(s, req.PlaceholderID, "11", "Первый")
	require.Equal(t, 1, countDefaults(s))
	require.Len(t, s.Conversations(), 2)

	// Deleting the promoted conversation keeps exactly one default.
	require.NoError(t, s.Delete("11"))
	require.Equal(t, 1, countDefaults(s))

	// Deleting the default recreates it.
	require.NoError(t, s.Delete(""))
	require.Equal(t, 1, countDefaults(s))
	require.True(t, s.Active().IsDefault())
}

func TestStore_NewConversationActivatesExistingDefault(t *testing.T) {
	s := newTestStore(t)

	req, _ := s.Post("вопрос")
	promote(s, req.PlaceholderID, "5", "")
	// Active is the promoted conversation now; the fresh default sits last.
	require.Equal(t, "5", s.Active().ID)

	conv := s.NewConversation()
	require.True(t, conv.IsDefault())
	require.Same(t, conv, s.Active())
	require.Equal(t, 1, countDefaults(s))
}

// =============================================================================
// POSTING
// =============================================================================

func TestStore_PostRejectsEmptyPrompt(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Post("   \n\t")
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestStore_PostEjectsOptions(t *testing.T) {
	s := newTestStore(t)

	s.ShowOptions([]model.Option{{Value: "Налоги", Label: "Налоги"}})
	require.Equal(t, model.KindOptions, s.Active().Last().Kind)

	req, err := s.Post("вопрос")
	require.NoError(t, err)
	require.Equal(t, "вопрос", req.Prompt)
	require.Empty(t, req.ConversationID)

	for _, msg := range s.Active().Messages {
		require.NotEqual(t, model.KindOptions, msg.Kind)
	}

	// Greeting, user prompt, streaming placeholder.
	msgs := s.Active().Messages
	require.Len(t, msgs, 3)
	require.Equal(t, model.KindUser, msgs[1].Kind)
	require.True(t, msgs[2].Streaming)
	require.Equal(t, req.PlaceholderID, msgs[2].ID)
}

func TestStore_StreamUpdatesPlaceholder(t *testing.T) {
	s := newTestStore(t)

	req, _ := s.Post("вопрос")

	s.ApplyEvent(req.PlaceholderID, api.Event{Type: api.EventText, Text: "част"})
	s.ApplyEvent(req.PlaceholderID, api.Event{Type: api.EventText, Text: "частичный"})

	msg := s.Active().ByID(req.PlaceholderID)
	require.Equal(t, "частичный", msg.Text)
	require.True(t, msg.Streaming)

	s.ApplyEvent(req.PlaceholderID, api.Event{Type: api.EventDone, Text: "частичный"})
	require.False(t, msg.Streaming)
}

func TestStore_MidflightPromotionFollowsPlaceholder(t *testing.T) {
	s := newTestStore(t)

	req, _ := s.Post("вопрос")
	origin := s.Active()

	// User walks away while the stream is in flight.
	second := s.NewConversation()
	require.NotSame(t, origin, second)

	promote(s, req.PlaceholderID, "42", "Заголовок")
	finish(s, req.PlaceholderID, "ответ")

	// The promotion landed on the conversation that owns the placeholder,
	// not the one the user is looking at.
	require.Equal(t, "42", origin.ID)
	require.Equal(t, "Заголовок", origin.Title)
	require.True(t, second.IsDefault())
	require.Equal(t, "ответ", origin.ByID(req.PlaceholderID).Text)
}

func TestStore_EventsForUnknownPlaceholderDropped(t *testing.T) {
	s := newTestStore(t)

	// Must not panic or create anything.
	s.ApplyEvent("missing", api.Event{Type: api.EventText, Text: "x"})
	require.Len(t, s.Conversations(), 1)
}

func TestStore_FailStream(t *testing.T) {
	s := newTestStore(t)

	// Empty placeholder is replaced by the localized error.
	req, _ := s.Post("вопрос")
	s.FailStream(req.PlaceholderID)
	msg := s.Active().ByID(req.PlaceholderID)
	require.False(t, msg.Streaming)
	require.Equal(t, i18n.T(i18n.LocaleRU, i18n.KeyChatError), msg.Text)

	// Partial text is preserved; the error arrives as a notice.
	req2, _ := s.Post("ещё вопрос")
	s.ApplyEvent(req2.PlaceholderID, api.Event{Type: api.EventText, Text: "част"})
	s.FailStream(req2.PlaceholderID)
	require.Equal(t, "част", s.Active().ByID(req2.PlaceholderID).Text)
	require.Equal(t, model.KindNotice, s.Active().Last().Kind)
}

// =============================================================================
// FEEDBACK
// =============================================================================

func ratedConversation(t *testing.T, s *Store) (convID string, botMsgID string) {
	t.Helper()
	req, err := s.Post("вопрос")
	require.NoError(t, err)
	promote(s, req.PlaceholderID, "7", "")
	finish(s, req.PlaceholderID, "ответ")
	return "7", req.PlaceholderID
}

func TestStore_FeedbackIdempotent(t *testing.T) {
	s := newTestStore(t)
	_, msgID := ratedConversation(t, s)

	res, err := s.SubmitFeedback(msgID, model.FeedbackGood)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, "7", res.ConversationID)
	require.Equal(t, 1, res.MessageIndex)

	// Second rating is ignored, first one stands.
	res, err = s.SubmitFeedback(msgID, model.FeedbackBad)
	require.NoError(t, err)
	require.False(t, res.Applied)

	conv, _ := s.Switch("7")
	require.Equal(t, model.FeedbackGood, conv.ByID(msgID).Feedback)
}

func TestStore_BadFeedbackPromptOnce(t *testing.T) {
	s := newTestStore(t)
	_, msgID := ratedConversation(t, s)

	res, err := s.SubmitFeedback(msgID, model.FeedbackBad)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.True(t, res.RegistrationPromptShown)

	conv, _ := s.Switch("7")
	require.Equal(t, model.KindNotice, conv.Last().Kind)
	require.Equal(t, i18n.T(i18n.LocaleRU, i18n.KeyBadFeedbackPrompt), conv.Last().Text)

	// A second bad rating in the same conversation shows no second prompt.
	req, _ := s.Post("ещё вопрос")
	finish(s, req.PlaceholderID, "ответ2")
	res, err = s.SubmitFeedback(req.PlaceholderID, model.FeedbackBad)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.False(t, res.RegistrationPromptShown)
}

func TestStore_RevertFeedbackAllowsRetry(t *testing.T) {
	state, err := persist.NewState(persist.NewMemoryStore())
	require.NoError(t, err)
	s := New(state)

	req, err := s.Post("вопрос")
	require.NoError(t, err)
	promote(s, req.PlaceholderID, "7", "")
	finish(s, req.PlaceholderID, "ответ")

	res, err := s.SubmitFeedback(req.PlaceholderID, model.FeedbackGood)
	require.NoError(t, err)
	require.True(t, res.Applied)
	_, ok := state.Rating("7", res.MessageIndex)
	require.True(t, ok)

	// Backend rejected the rating; roll it back so it can be retried.
	s.RevertFeedback(req.PlaceholderID)
	_, ok = state.Rating("7", res.MessageIndex)
	require.False(t, ok)
	conv, err := s.Switch("7")
	require.NoError(t, err)
	require.Equal(t, model.FeedbackNone, conv.ByID(req.PlaceholderID).Feedback)

	res, err = s.SubmitFeedback(req.PlaceholderID, model.FeedbackBad)
	require.NoError(t, err)
	require.True(t, res.Applied)
}

func TestStore_RevertFeedbackKeepsRegistrationPrompt(t *testing.T) {
	s := newTestStore(t)
	_, msgID := ratedConversation(t, s)

	res, err := s.SubmitFeedback(msgID, model.FeedbackBad)
	require.NoError(t, err)
	require.True(t, res.RegistrationPromptShown)

	s.RevertFeedback(msgID)

	// The prompt stays in the transcript and is not offered a second time.
	res, err = s.SubmitFeedback(msgID, model.FeedbackBad)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.False(t, res.RegistrationPromptShown)
	conv, _ := s.Switch("7")
	require.Equal(t, model.KindNotice, conv.Last().Kind)
}

func TestStore_FeedbackRequiresSavedConversation(t *testing.T) {
	s := newTestStore(t)

	req, _ := s.Post("вопрос")
	finish(s, req.PlaceholderID, "ответ")

	_, err := s.SubmitFeedback(req.PlaceholderID, model.FeedbackGood)
	require.ErrorIs(t, err, ErrNotSaved)
}

func TestStore_FeedbackRejectsStreaming(t *testing.T) {
	s := newTestStore(t)

	req, _ := s.Post("вопрос")
	promote(s, req.PlaceholderID, "7", "")

	_, err := s.SubmitFeedback(req.PlaceholderID, model.FeedbackGood)
	require.ErrorIs(t, err, ErrStreaming)
}

// =============================================================================
// DELETE AND RETENTION
// =============================================================================

func TestStore_DeleteActivatesNewestSurvivor(t *testing.T) {
	s := newTestStore(t)

	for i, id := range []string{"1", "2"} {
		req, _ := s.Post("вопрос")
		promote(s, req.PlaceholderID, id, "")
		finish(s, req.PlaceholderID, "ответ")
		if i == 0 {
			s.NewConversation()
		}
	}
	conv2, err := s.Switch("2")
	require.NoError(t, err)
	require.Same(t, conv2, s.Active())

	require.NoError(t, s.Delete("2"))

	// Soft-deleted locally, excluded from future loads.
	require.Nil(t, s.Active().ByID("nothing"))
	_, err = s.Switch("2")
	require.ErrorIs(t, err, ErrNotFound)

	// Newest survivor becomes active.
	require.True(t, s.Active().IsDefault() || s.Active().ID == "1")

	s.LoadSaved([]api.ConversationSummary{{ID: "2", Title: "Удалён"}})
	_, err = s.Switch("2")
	require.ErrorIs(t, err, ErrNotFound, "soft-deleted id must not come back")
}

func TestStore_PruneInactive(t *testing.T) {
	s := newTestStore(t)

	req, _ := s.Post("вопрос")
	promote(s, req.PlaceholderID, "old", "")
	finish(s, req.PlaceholderID, "ответ")
	old := s.Active()

	s.NewConversation()
	req2, _ := s.Post("вопрос 2")
	promote(s, req2.PlaceholderID, "fresh", "")
	finish(s, req2.PlaceholderID, "ответ 2")

	// Age the first conversation past retention; the default too, which
	// must survive regardless.
	old.UpdatedAt = time.Now().AddDate(0, 0, -8)
	for _, conv := range s.Conversations() {
		if conv.IsDefault() {
			conv.UpdatedAt = time.Now().AddDate(0, 0, -30)
		}
	}

	pruned := s.PruneInactive()
	require.Equal(t, []string{"old"}, pruned)

	_, err := s.Switch("old")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, countDefaults(s))

	// Six-day-old conversations survive.
	fresh, err := s.Switch("fresh")
	require.NoError(t, err)
	fresh.UpdatedAt = time.Now().AddDate(0, 0, -6)
	require.Empty(t, s.PruneInactive())
}

func TestStore_SwitchDoesNotExtendRetention(t *testing.T) {
	s := newTestStore(t)

	req, _ := s.Post("вопрос")
	promote(s, req.PlaceholderID, "7", "")
	finish(s, req.PlaceholderID, "ответ")

	s.NewConversation()
	aged := time.Now().AddDate(0, 0, -8)
	conv, err := s.Switch("7")
	require.NoError(t, err)
	conv.UpdatedAt = aged

	// Viewing again leaves the timestamp alone, so the conversation is
	// still pruned after the retention window.
	s.NewConversation()
	conv, err = s.Switch("7")
	require.NoError(t, err)
	require.Equal(t, aged, conv.UpdatedAt)

	s.NewConversation()
	require.Equal(t, []string{"7"}, s.PruneInactive())
}

// =============================================================================
// LOADING SAVED CONVERSATIONS
// =============================================================================

func TestStore_LoadSavedSkipsDeletedAndDuplicates(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Delete("")) // no-op shape guard: recreates default

	state := []api.ConversationSummary{
		{ID: "1", Title: "Первый"},
		{ID: "2", Title: "Второй"},
	}
	s.LoadSaved(state)
	require.Len(t, s.Conversations(), 3)

	// Loading again adds nothing.
	s.LoadSaved(state)
	require.Len(t, s.Conversations(), 3)

	require.NoError(t, s.Delete("1"))
	s.LoadSaved(state)
	_, err := s.Switch("1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Populate(t *testing.T) {
	s := newTestStore(t)
	s.LoadSaved([]api.ConversationSummary{{ID: "3", Title: "Сохранённый"}})

	conv, err := s.Switch("3")
	require.NoError(t, err)
	require.False(t, conv.Populated)

	hist := &api.ConversationHistory{
		ID:    "3",
		Title: "Сохранённый",
		Messages: []api.HistoryMessage{
			{Type: "user", Text: "вопрос"},
			{Type: "assistant", Text: "ответ"},
		},
	}
	require.NoError(t, s.Populate("3", hist))
	require.True(t, conv.Populated)

	// Greeting survives at index 0, transcript follows.
	require.Len(t, conv.Messages, 3)
	require.Equal(t, model.KindUser, conv.Messages[1].Kind)
	require.Equal(t, "ответ", conv.Messages[2].Text)

	// Populate is a no-op once filled.
	require.NoError(t, s.Populate("3", &api.ConversationHistory{}))
	require.Len(t, conv.Messages, 3)
}

func TestStore_PopulateReconcilesLocalState(t *testing.T) {
	state, err := persist.NewState(persist.NewMemoryStore())
	require.NoError(t, err)
	_, err = state.SetRating("3", 1, "good")
	require.NoError(t, err)
	require.NoError(t, state.AddFilePaths("3", persist.BotKey(0), "docs/a.pdf"))

	s := New(state)
	s.LoadSaved([]api.ConversationSummary{{ID: "3", Title: ""}})
	require.NoError(t, s.Populate("3", &api.ConversationHistory{
		Messages: []api.HistoryMessage{
			{Type: "user", Text: "вопрос"},
			{Type: "assistant", Text: "ответ"},
		},
	}))

	conv, _ := s.Switch("3")
	bot := conv.Messages[2]
	require.Equal(t, model.FeedbackGood, bot.Feedback)
	require.Equal(t, []string{"docs/a.pdf"}, bot.FilePaths)
}

// =============================================================================
// LOCALE
// =============================================================================

func TestStore_LocaleRefreshesGreetings(t *testing.T) {
	s := newTestStore(t)
	req, _ := s.Post("вопрос")
	promote(s, req.PlaceholderID, "7", "")

	require.NoError(t, s.SetLocale(i18n.LocaleKZ))
	require.Equal(t, i18n.LocaleKZ, s.Locale())

	for _, conv := range s.Conversations() {
		require.Equal(t, i18n.T(i18n.LocaleKZ, i18n.KeyGreeting), conv.Messages[0].Text)
	}
}

func TestStore_LocalePersisted(t *testing.T) {
	backing := persist.NewMemoryStore()
	state, err := persist.NewState(backing)
	require.NoError(t, err)

	s := New(state)
	require.NoError(t, s.SetLocale(i18n.LocaleKZ))

	state2, err := persist.NewState(backing)
	require.NoError(t, err)
	restored := New(state2)
	require.Equal(t, i18n.LocaleKZ, restored.Locale())
}

func TestStore_RelabelOptions(t *testing.T) {
	s := newTestStore(t)
	s.ShowOptions([]model.Option{{Value: "Налоги", Label: "Налоги"}})

	s.RelabelOptions(func(value string) string {
		if value == "Налоги" {
			return "Салықтар"
		}
		return value
	})

	opts := s.Active().Last().Options
	require.Equal(t, "Салықтар", opts[0].Label)
	require.Equal(t, "Налоги", opts[0].Value)
}
