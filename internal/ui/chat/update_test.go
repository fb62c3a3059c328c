// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/config"
	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/model"
	"github.com/askdesk/askdesk-tui/internal/persist"
	"github.com/askdesk/askdesk-tui/internal/store"
)

// newTestModel builds a model wired to in-memory state. The API client
// points at an unroutable address; tests never execute network commands.
func newTestModel(t *testing.T) Model {
	t.Helper()
	ps, err := persist.NewState(persist.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	st := store.New(ps)
	client := api.New("http://127.0.0.1:0", "", "")
	m := New(client, st, ps, *config.Default())
	m.resize(100, 30)
	return m
}

// asModel unwraps the tea.Model interface returned by Update.
func asModel(t *testing.T, tm tea.Model) Model {
	t.Helper()
	m, ok := tm.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want chat.Model", tm)
	}
	return m
}

func testCatalog() *api.CategoriesResponse {
	return &api.CategoriesResponse{
		Categories: []api.Category{
			{
				Name: "Отчёты",
				Subcategories: []api.Subcategory{
					{Name: "Финансовые", FAQ: []api.FAQ{{Question: "Как сдать отчёт?"}}},
				},
			},
			{Name: "Техподдержка"},
		},
		TranslationsKZ: map[string]string{"Отчёты": "Есептер"},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+g":
		return tea.KeyMsg{Type: tea.KeyCtrlG}
	case "ctrl+b":
		return tea.KeyMsg{Type: tea.KeyCtrlB}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func TestCatalogShowsRootOptions(t *testing.T) {
	m := newTestModel(t)

	tm, _ := m.Update(CatalogMsg{Catalog: testCatalog()})
	m = asModel(t, tm)

	if m.focus != FocusOptions {
		t.Errorf("focus = %v, want FocusOptions", m.focus)
	}
	opts := m.visibleOptions()
	if len(opts) != 2 {
		t.Fatalf("visible options = %d, want 2", len(opts))
	}
	if opts[0].Value != "Отчёты" {
		t.Errorf("first option = %q, want Отчёты", opts[0].Value)
	}
}

func TestCatalogErrorKeepsChatUsable(t *testing.T) {
	m := newTestModel(t)

	tm, _ := m.Update(CatalogMsg{Error: errors.New("boom")})
	m = asModel(t, tm)

	if m.focus != FocusInput {
		t.Errorf("focus = %v, want FocusInput", m.focus)
	}
	if m.statusMsg == "" {
		t.Error("catalog error should surface in the status line")
	}
}

// =============================================================================
// POSTING AND STREAMING
// =============================================================================

func TestSubmitPostsPlaceholder(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("Как дела?")

	tm, cmd := m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	if cmd == nil {
		t.Fatal("submit should produce stream commands")
	}
	if !m.Streaming() {
		t.Error("model should report an in-flight stream")
	}

	conv := m.store.Active()
	last := conv.Last()
	if last.Kind != model.KindAssistant || !last.Streaming {
		t.Errorf("last message = %v streaming=%v, want streaming assistant", last.Kind, last.Streaming)
	}
	user := conv.Messages[len(conv.Messages)-2]
	if user.Kind != model.KindUser || user.Text != "Как дела?" {
		t.Errorf("user message = %v %q", user.Kind, user.Text)
	}
}

func TestSubmitEmptyPromptIsNoop(t *testing.T) {
	m := newTestModel(t)
	before := len(m.store.Active().Messages)

	tm, cmd := m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	if cmd != nil {
		t.Error("empty submit should not produce commands")
	}
	if got := len(m.store.Active().Messages); got != before {
		t.Errorf("message count changed %d -> %d", before, got)
	}
}

func TestStreamEventsFillPlaceholder(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("вопрос")
	tm, _ := m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	placeholder := m.store.Active().Last()

	tm, _ = m.Update(StreamEventMsg{
		PlaceholderID: placeholder.ID,
		Event:         api.Event{Type: api.EventText, Text: "Частичный"},
	})
	m = asModel(t, tm)
	if placeholder.Text != "Частичный" {
		t.Errorf("placeholder text = %q", placeholder.Text)
	}

	tm, _ = m.Update(StreamEventMsg{
		PlaceholderID: placeholder.ID,
		Event:         api.Event{Type: api.EventDone, Text: "Полный ответ"},
	})
	m = asModel(t, tm)
	if placeholder.Text != "Полный ответ" {
		t.Errorf("final text = %q", placeholder.Text)
	}
	if placeholder.Streaming {
		t.Error("placeholder should stop streaming after done event")
	}

	tm, _ = m.Update(StreamDoneMsg{PlaceholderID: placeholder.ID})
	m = asModel(t, tm)
	if m.Streaming() {
		t.Error("no streams should remain after StreamDoneMsg")
	}
	if want := i18n.T(i18n.LocaleRU, i18n.KeyRequestFeedback); m.statusMsg != want {
		t.Errorf("status = %q, want feedback request", m.statusMsg)
	}
}

func TestStreamErrorFailsPlaceholder(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("вопрос")
	tm, _ := m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	placeholder := m.store.Active().Last()

	tm, _ = m.Update(StreamDoneMsg{PlaceholderID: placeholder.ID, Error: errors.New("timeout")})
	m = asModel(t, tm)

	if m.Streaming() {
		t.Error("stream should be cleared after error")
	}
	if placeholder.Streaming {
		t.Error("placeholder should be finalized after error")
	}
	if placeholder.Text != i18n.T(i18n.LocaleRU, i18n.KeyChatError) {
		t.Errorf("placeholder text = %q, want localized error", placeholder.Text)
	}
}

// =============================================================================
// SAVED CONVERSATIONS
// =============================================================================

func TestSavedChatsSkipLocallyDeleted(t *testing.T) {
	m := newTestModel(t)
	if err := m.state.MarkDeleted("7"); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}

	tm, _ := m.Update(SavedChatsMsg{List: []api.ConversationSummary{
		{ID: "7", Title: "удалённый"},
		{ID: "8", Title: "живой"},
	}})
	m = asModel(t, tm)

	for _, conv := range m.store.Conversations() {
		if conv.ID == "7" {
			t.Error("deleted conversation 7 should not be loaded")
		}
	}
}

func TestHistoryPopulatesConversation(t *testing.T) {
	m := newTestModel(t)
	tm, _ := m.Update(SavedChatsMsg{List: []api.ConversationSummary{{ID: "9", Title: "старый"}}})
	m = asModel(t, tm)

	tm, _ = m.Update(HistoryMsg{ID: "9", History: &api.ConversationHistory{
		ID:    "9",
		Title: "старый",
		Messages: []api.HistoryMessage{
			{Type: "user", Text: "привет"},
			{Type: "assistant", Text: "здравствуйте"},
		},
	}})
	m = asModel(t, tm)

	for _, conv := range m.store.Conversations() {
		if conv.ID == "9" {
			if !conv.Populated {
				t.Error("conversation 9 should be populated")
			}
			return
		}
	}
	t.Fatal("conversation 9 not found")
}

// =============================================================================
// NEW CHAT AND LOCALE
// =============================================================================

func TestNewChatResetsNavigation(t *testing.T) {
	m := newTestModel(t)
	tm, _ := m.Update(CatalogMsg{Catalog: testCatalog()})
	m = asModel(t, tm)

	// Descend one level, then start over.
	tm, _ = m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	tm, _ = m.Update(keyMsg("ctrl+n"))
	m = asModel(t, tm)

	category, _, _ := m.navigator.Context()
	if category != "" {
		t.Errorf("category after reset = %q, want empty", category)
	}
	opts := m.visibleOptions()
	if len(opts) != 2 {
		t.Errorf("root options after reset = %d, want 2", len(opts))
	}
}

func TestToggleLocaleRelabelsOptions(t *testing.T) {
	m := newTestModel(t)
	tm, _ := m.Update(CatalogMsg{Catalog: testCatalog()})
	m = asModel(t, tm)

	tm, _ = m.Update(keyMsg("ctrl+t"))
	m = asModel(t, tm)

	if m.locale() != i18n.LocaleKZ {
		t.Fatalf("locale = %v, want kz", m.locale())
	}
	opts := m.visibleOptions()
	if opts[0].Label != "Есептер" {
		t.Errorf("relabeled option = %q, want Есептер", opts[0].Label)
	}
	if opts[0].Value != "Отчёты" {
		t.Errorf("canonical value changed to %q", opts[0].Value)
	}
}

// =============================================================================
// OPTION NAVIGATION
// =============================================================================

func TestOptionSelectionDescends(t *testing.T) {
	m := newTestModel(t)
	tm, _ := m.Update(CatalogMsg{Catalog: testCatalog()})
	m = asModel(t, tm)

	// Select "Отчёты": descends to subcategories.
	tm, _ = m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	opts := m.visibleOptions()
	if len(opts) != 1 || opts[0].Value != "Финансовые" {
		t.Fatalf("options after descent = %+v", opts)
	}
	category, _, _ := m.navigator.Context()
	if category != "Отчёты" {
		t.Errorf("category = %q", category)
	}
}

func TestFAQLeafPostsPrompt(t *testing.T) {
	m := newTestModel(t)
	tm, _ := m.Update(CatalogMsg{Catalog: testCatalog()})
	m = asModel(t, tm)

	// Отчёты -> Финансовые -> FAQ leaf.
	tm, _ = m.Update(keyMsg("enter"))
	m = asModel(t, tm)
	tm, _ = m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	opts := m.visibleOptions()
	if len(opts) == 0 || !opts[0].Leaf {
		t.Fatalf("expected FAQ leaf options, got %+v", opts)
	}

	tm, cmd := m.Update(keyMsg("enter"))
	m = asModel(t, tm)
	if cmd == nil {
		t.Fatal("FAQ selection should start a stream")
	}
	found := false
	for _, msg := range m.store.Active().Messages {
		if msg.Kind == model.KindUser && msg.Text == "Как сдать отчёт?" {
			found = true
		}
	}
	if !found {
		t.Error("FAQ question should be posted as the user prompt")
	}
}

func TestTypingLeavesOptionMode(t *testing.T) {
	m := newTestModel(t)
	tm, _ := m.Update(CatalogMsg{Catalog: testCatalog()})
	m = asModel(t, tm)

	tm, _ = m.Update(keyMsg("п"))
	m = asModel(t, tm)

	if m.focus != FocusInput {
		t.Errorf("focus = %v, want FocusInput after typing", m.focus)
	}
	if got := m.input.Value(); got != "п" {
		t.Errorf("input = %q, want the typed rune", got)
	}
}

// =============================================================================
// FEEDBACK
// =============================================================================

// completeAnswer posts a prompt and plays back a full stream so the
// conversation gains a server id and a rated answer becomes possible.
func completeAnswer(t *testing.T, m Model) (Model, *model.Message) {
	t.Helper()
	m.input.SetValue("вопрос")
	tm, _ := m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	placeholder := m.store.Active().Last()
	events := []api.Event{
		{Type: api.EventMeta, Meta: &api.Metadata{Type: "conversation", ConversationID: "42", ConversationTitle: "вопрос"}},
		{Type: api.EventText, Text: "Ответ"},
		{Type: api.EventDone, Text: "Ответ"},
	}
	for _, ev := range events {
		tm, _ = m.Update(StreamEventMsg{PlaceholderID: placeholder.ID, Event: ev})
		m = asModel(t, tm)
	}
	tm, _ = m.Update(StreamDoneMsg{PlaceholderID: placeholder.ID})
	return asModel(t, tm), placeholder
}

func TestGoodRatingIsRecordedOnce(t *testing.T) {
	m := newTestModel(t)
	m, answer := completeAnswer(t, m)

	tm, cmd := m.Update(keyMsg("ctrl+g"))
	m = asModel(t, tm)

	if answer.Feedback != model.FeedbackGood {
		t.Errorf("feedback = %q, want good", answer.Feedback)
	}
	if cmd == nil {
		t.Error("first rating should produce a backend command")
	}

	// Repeated rating is idempotent and opens nothing.
	tm, _ = m.Update(keyMsg("ctrl+b"))
	m = asModel(t, tm)
	if answer.Feedback != model.FeedbackGood {
		t.Errorf("feedback after re-rate = %q, want good unchanged", answer.Feedback)
	}
	if m.form != nil {
		t.Error("re-rating must not open the registration form")
	}
}

func TestFailedRatingSendCanBeRetried(t *testing.T) {
	m := newTestModel(t)
	m, answer := completeAnswer(t, m)

	tm, _ := m.Update(keyMsg("ctrl+g"))
	m = asModel(t, tm)
	if answer.Feedback != model.FeedbackGood {
		t.Fatalf("feedback = %q, want good", answer.Feedback)
	}

	// The backend rejected the rating; the local record rolls back so the
	// write-once rule does not strand the rating client-side.
	tm, _ = m.Update(FeedbackAckMsg{MessageID: answer.ID, Error: errors.New("503")})
	m = asModel(t, tm)
	if answer.Feedback != model.FeedbackNone {
		t.Errorf("feedback after failed send = %q, want none", answer.Feedback)
	}
	if m.statusMsg == "" {
		t.Error("failed send should surface in the status line")
	}

	tm, cmd := m.Update(keyMsg("ctrl+g"))
	m = asModel(t, tm)
	if answer.Feedback != model.FeedbackGood {
		t.Errorf("feedback after retry = %q, want good", answer.Feedback)
	}
	if cmd == nil {
		t.Error("retry should produce a backend command")
	}
}

func TestBadRatingOpensRegistrationForm(t *testing.T) {
	m := newTestModel(t)
	m, answer := completeAnswer(t, m)

	tm, _ := m.Update(keyMsg("ctrl+b"))
	m = asModel(t, tm)

	if answer.Feedback != model.FeedbackBad {
		t.Errorf("feedback = %q, want bad", answer.Feedback)
	}
	if m.form == nil {
		t.Fatal("bad rating should open the registration form")
	}
	if m.focus != FocusForm {
		t.Errorf("focus = %v, want FocusForm", m.focus)
	}
	if m.form.conversationID != "42" {
		t.Errorf("form conversation id = %q, want 42", m.form.conversationID)
	}

	// The one-time prompt notice lands in the transcript.
	var found bool
	for _, msg := range m.store.Active().Messages {
		if msg.Kind == model.KindNotice && strings.Contains(msg.Text, "форм") {
			found = true
		}
	}
	if !found {
		t.Error("registration prompt notice missing from transcript")
	}
}

func TestRatingStreamingAnswerIsRejected(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("вопрос")
	tm, _ := m.Update(keyMsg("enter"))
	m = asModel(t, tm)

	tm, cmd := m.Update(keyMsg("ctrl+g"))
	m = asModel(t, tm)
	if cmd != nil {
		t.Error("rating a streaming answer should not reach the backend")
	}
	if m.store.Active().Last().Feedback != model.FeedbackNone {
		t.Error("streaming answer must not carry feedback")
	}
}

// =============================================================================
// REGISTRATION OVERLAY
// =============================================================================

func TestRegistrationSentClosesForm(t *testing.T) {
	m := newTestModel(t)
	m, _ = completeAnswer(t, m)
	tm, _ := m.Update(keyMsg("ctrl+b"))
	m = asModel(t, tm)

	tm, _ = m.Update(RegistrationSentMsg{})
	m = asModel(t, tm)

	if m.form != nil {
		t.Error("form should close after successful submission")
	}
	last := m.store.Active().Last()
	if last.Kind != model.KindNotice || last.Text != i18n.T(i18n.LocaleRU, i18n.KeyRegistrationSent) {
		t.Errorf("confirmation notice = %v %q", last.Kind, last.Text)
	}
}

func TestRegistrationErrorKeepsFormOpen(t *testing.T) {
	m := newTestModel(t)
	m, _ = completeAnswer(t, m)
	tm, _ := m.Update(keyMsg("ctrl+b"))
	m = asModel(t, tm)

	tm, _ = m.Update(RegistrationSentMsg{Error: errors.New("500")})
	m = asModel(t, tm)

	if m.form == nil {
		t.Error("form should stay open after a failed submission")
	}
	if m.form.submitting {
		t.Error("submitting flag should reset so the user can retry")
	}
}

func TestEscClosesForm(t *testing.T) {
	m := newTestModel(t)
	m, _ = completeAnswer(t, m)
	tm, _ := m.Update(keyMsg("ctrl+b"))
	m = asModel(t, tm)

	tm, _ = m.Update(keyMsg("esc"))
	m = asModel(t, tm)

	if m.form != nil {
		t.Error("Esc should close the registration form")
	}
	if m.focus != FocusInput {
		t.Errorf("focus = %v, want FocusInput", m.focus)
	}
}

// =============================================================================
// VIEW SMOKE TESTS
// =============================================================================

func TestViewRendersTranscript(t *testing.T) {
	m := newTestModel(t)
	m, _ = completeAnswer(t, m)

	out := m.View()
	if !strings.Contains(out, "askdesk") {
		t.Error("view should contain the header title")
	}
	if !strings.Contains(out, "RU") {
		t.Error("view should contain the locale badge")
	}
}

func TestViewNarrowHidesSidebar(t *testing.T) {
	m := newTestModel(t)
	m.resize(50, 20)

	if m.sidebarVisible() {
		t.Error("sidebar should be hidden below the medium layout")
	}
	// Render must not panic at narrow widths.
	_ = m.View()
}
