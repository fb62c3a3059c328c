// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view of the askdesk TUI.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/model"
	"github.com/askdesk/askdesk-tui/internal/store"
	"github.com/askdesk/askdesk-tui/internal/ui/styles"
)

// requestTimeout bounds the non-streaming backend calls issued by the UI.
const requestTimeout = 15 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// fetchCatalogCmd loads the category tree.
func fetchCatalogCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		catalog, err := client.Categories(ctx)
		return CatalogMsg{Catalog: catalog, Error: err}
	}
}

// fetchSavedCmd loads the saved conversation list.
func fetchSavedCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := client.MyConversations(ctx)
		return SavedChatsMsg{List: list, Error: err}
	}
}

// fetchHistoryCmd loads one conversation's transcript.
func fetchHistoryCmd(client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		hist, err := client.ConversationHistory(ctx, id)
		return HistoryMsg{ID: id, History: hist, Error: err}
	}
}

// sendFeedbackCmd reports a rating to the backend. The store has already
// recorded it locally; an ack error rolls that record back so the rating
// can be retried. The free-text comment is optional and may be empty.
func sendFeedbackCmd(client *api.Client, messageID, conversationID string, index int, rate, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.AddFeedback(ctx, conversationID, api.FeedbackRequest{
			MessageIndex: index,
			Rate:         rate,
			Text:         text,
		})
		return FeedbackAckMsg{MessageID: messageID, Error: err}
	}
}

// fetchRegionsCmd loads the region list for the registration form.
func fetchRegionsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		regions, err := client.Regions(ctx)
		return RegionsMsg{Regions: regions, Error: err}
	}
}

// submitRegistrationCmd sends the validated form to the backend.
func submitRegistrationCmd(client *api.Client, sub api.RegistrationSubmission) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return RegistrationSentMsg{Error: client.SubmitRegistration(ctx, sub)}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update is the Bubble Tea update loop for the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CatalogMsg:
		return m.handleCatalog(msg)

	case SavedChatsMsg:
		return m.handleSavedChats(msg)

	case HistoryMsg:
		delete(m.historyPending, msg.ID)
		if msg.Error == nil && msg.History != nil {
			_ = m.store.Populate(msg.ID, msg.History)
		}
		m.refreshViewport(true)
		return m, nil

	case StreamEventMsg:
		m.store.ApplyEvent(msg.PlaceholderID, msg.Event)
		m.refreshViewport(true)
		if ch, ok := m.streams[msg.PlaceholderID]; ok {
			return m, waitForStreamCmd(ch)
		}
		return m, nil

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case FeedbackAckMsg:
		if msg.Error != nil {
			m.store.RevertFeedback(msg.MessageID)
			m.statusMsg = msg.Error.Error()
			m.refreshViewport(false)
		}
		return m, nil

	case RegionsMsg:
		if msg.Error == nil {
			m.regions = msg.Regions
			if m.form != nil {
				m.form.SetRegions(msg.Regions)
			}
		}
		return m, nil

	case RegistrationSentMsg:
		return m.handleRegistrationSent(msg)
	}

	return m, nil
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

// handleCatalog installs the category tree and shows the root options.
func (m Model) handleCatalog(msg CatalogMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		// The chat stays usable for free-text questions without a catalog.
		m.statusMsg = msg.Error.Error()
		return m, nil
	}
	m.catalog = msg.Catalog
	m.navigator.SetCatalog(msg.Catalog)
	opts := m.navigator.Options(m.locale())
	if len(opts) > 0 {
		m.store.ShowOptions(opts)
		m.focus = FocusOptions
		m.optionCursor = 0
	}
	m.refreshViewport(true)
	return m, nil
}

// handleSavedChats merges the server's list, skipping locally deleted
// conversations, then prunes the stale ones.
func (m Model) handleSavedChats(msg SavedChatsMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.statusMsg = msg.Error.Error()
		return m, nil
	}
	kept := make([]api.ConversationSummary, 0, len(msg.List))
	for _, c := range msg.List {
		if !m.state.IsDeleted(c.ID.String()) {
			kept = append(kept, c)
		}
	}
	m.store.LoadSaved(kept)
	m.store.PruneInactive()
	m.refreshViewport(false)
	return m, nil
}

// handleStreamDone finalizes a finished stream.
func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	delete(m.streams, msg.PlaceholderID)
	if msg.Error != nil {
		m.store.FailStream(msg.PlaceholderID)
	} else {
		m.statusMsg = i18n.T(m.locale(), i18n.KeyRequestFeedback)
	}
	m.thinking = len(m.streams) > 0
	m.refreshViewport(true)
	return m, nil
}

// handleRegistrationSent closes the form on success.
func (m Model) handleRegistrationSent(msg RegistrationSentMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		m.form.submitting = false
	}
	if msg.Error != nil {
		m.statusMsg = msg.Error.Error()
		return m, nil
	}
	m.form = nil
	m.focus = FocusInput
	m.input.Focus()
	m.store.Active().Add(model.NewNoticeMessage(i18n.T(m.locale(), i18n.KeyRegistrationSent)))
	m.refreshViewport(true)
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes a key press by focus, with a few global chords.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A fresh key press retires the transient status line.
	m.statusMsg = ""

	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.focus == FocusForm && m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.NewChat):
		m.store.NewConversation()
		m.navigator.Reset()
		if opts := m.navigator.Options(m.locale()); len(opts) > 0 {
			m.store.ShowOptions(opts)
			m.focus = FocusOptions
			m.optionCursor = 0
		} else {
			m.focus = FocusInput
			m.input.Focus()
		}
		m.refreshViewport(true)
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleLocale):
		return m.toggleLocale()

	case key.Matches(msg, m.keyMap.NextPane):
		m.cycleFocus()
		return m, nil

	case key.Matches(msg, m.keyMap.FeedbackGood):
		return m.rateLast(model.FeedbackGood)

	case key.Matches(msg, m.keyMap.FeedbackBad):
		return m.rateLast(model.FeedbackBad)
	}

	switch m.focus {
	case FocusOptions:
		return m.handleOptionsKey(msg)
	case FocusSidebar:
		return m.handleSidebarKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

// handleInputKey drives the text input and viewport scrolling.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submitInput()
	case key.Matches(msg, m.keyMap.Up), key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleOptionsKey navigates the visible option list.
func (m Model) handleOptionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	opts := m.visibleOptions()
	if len(opts) == 0 {
		m.focus = FocusInput
		m.input.Focus()
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.optionCursor > 0 {
			m.optionCursor--
		}
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		if m.optionCursor < len(opts)-1 {
			m.optionCursor++
		}
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.selectOption(opts[m.optionCursor])

	case key.Matches(msg, m.keyMap.Cancel):
		m.focus = FocusInput
		m.input.Focus()
		return m, nil
	}

	// Any typed character drops the user into free-text mode.
	if msg.Type == tea.KeyRunes {
		m.focus = FocusInput
		m.input.Focus()
		return m.handleInputKey(msg)
	}
	return m, nil
}

// handleSidebarKey navigates the saved conversation list.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	convs := m.store.Conversations()
	if len(convs) == 0 {
		m.focus = FocusInput
		m.input.Focus()
		return m, nil
	}
	if m.sidebarCursor >= len(convs) {
		m.sidebarCursor = len(convs) - 1
	}

	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		if m.sidebarCursor < len(convs)-1 {
			m.sidebarCursor++
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.switchTo(convs[m.sidebarCursor])

	case key.Matches(msg, m.keyMap.DeleteChat):
		conv := convs[m.sidebarCursor]
		if conv.ID != "" {
			_ = m.state.MarkDeleted(conv.ID)
		}
		if err := m.store.Delete(conv.ID); err == nil {
			if m.sidebarCursor > 0 {
				m.sidebarCursor--
			}
		}
		m.refreshViewport(true)
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		m.focus = FocusInput
		m.input.Focus()
		return m, nil
	}
	return m, nil
}

// handleFormKey routes keys into the registration overlay.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.form = nil
		m.focus = FocusInput
		m.input.Focus()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if m.form.submitting {
			return m, nil
		}
		sub, ok := m.form.Validate()
		if !ok {
			m.statusMsg = i18n.T(m.locale(), i18n.KeyRegistrationInvalid)
			return m, nil
		}
		m.form.submitting = true
		return m, submitRegistrationCmd(m.client, sub)
	}

	m.form.Update(msg)
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// submitInput posts the typed prompt.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	prompt := m.input.Value()
	m.input.SetValue("")
	return m, m.postPrompt(prompt)
}

// selectOption applies a navigation choice.
func (m Model) selectOption(opt model.Option) (tea.Model, tea.Cmd) {
	sel := m.navigator.Select(opt.Value, m.locale())

	if sel.Post {
		return m, m.postPrompt(sel.Prompt)
	}
	if len(sel.Options) > 0 {
		m.store.Active().EjectOptions()
		m.store.ShowOptions(sel.Options)
		m.optionCursor = 0
		m.refreshViewport(true)
		return m, nil
	}
	// Dead end in the tree: hand over to free text.
	m.focus = FocusInput
	m.input.Focus()
	return m, nil
}

// postPrompt runs the two-step post handshake and starts the stream.
func (m *Model) postPrompt(prompt string) tea.Cmd {
	req, err := m.store.Post(prompt)
	if err != nil {
		if !errors.Is(err, store.ErrEmptyPrompt) {
			m.statusMsg = err.Error()
		}
		return nil
	}

	category, subcategory, report := m.navigator.Context()
	params := api.AskParams{
		Prompt:            req.Prompt,
		Locale:            m.locale().String(),
		Category:          category,
		Subcategory:       subcategory,
		SubcategoryReport: report,
		ConversationID:    req.ConversationID,
	}

	ch := make(chan tea.Msg, streamChanBuffer)
	m.streams[req.PlaceholderID] = ch
	m.thinking = true
	m.thinkingStart = time.Now()
	m.focus = FocusInput
	m.input.Focus()
	m.refreshViewport(true)

	return tea.Batch(
		startStreamCmd(m.client, req.PlaceholderID, params, ch),
		waitForStreamCmd(ch),
		m.spinner.Tick,
	)
}

// switchTo activates a sidebar conversation, fetching its history on
// first visit.
func (m Model) switchTo(conv *model.Conversation) (tea.Model, tea.Cmd) {
	id := conv.ID
	switched, err := m.store.Switch(id)
	if err != nil {
		m.statusMsg = err.Error()
		return m, nil
	}
	m.focus = FocusInput
	m.input.Focus()
	m.refreshViewport(true)

	if id != "" && !switched.Populated && !m.historyPending[id] {
		m.historyPending[id] = true
		return m, fetchHistoryCmd(m.client, id)
	}
	return m, nil
}

// rateLast rates the newest completed assistant answer.
func (m Model) rateLast(fb model.Feedback) (tea.Model, tea.Cmd) {
	target := m.lastRatable()
	if target == nil {
		return m, nil
	}

	res, err := m.store.SubmitFeedback(target.ID, fb)
	if err != nil {
		m.statusMsg = err.Error()
		return m, nil
	}
	m.refreshViewport(true)

	var cmds []tea.Cmd
	if res.Applied {
		m.statusMsg = i18n.T(m.locale(), i18n.KeyFeedbackThanks)
		cmds = append(cmds, sendFeedbackCmd(m.client, target.ID, res.ConversationID, res.MessageIndex, string(fb), ""))
	}
	if res.RegistrationPromptShown {
		m.form = NewForm(m.theme, res.ConversationID, nil, m.regions)
		m.focus = FocusForm
		if len(m.regions) == 0 {
			cmds = append(cmds, fetchRegionsCmd(m.client))
		}
	}
	return m, tea.Batch(cmds...)
}

// lastRatable returns the newest assistant message eligible for a rating.
func (m Model) lastRatable() *model.Message {
	conv := m.store.Active()
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.Kind == model.KindAssistant && !msg.Streaming {
			if conv.ServerIndex(msg.ID) < 0 {
				return nil
			}
			return msg
		}
	}
	return nil
}

// toggleLocale flips ru/kz and relabels everything visible.
func (m Model) toggleLocale() (tea.Model, tea.Cmd) {
	loc := i18n.Toggle(m.locale())
	if err := m.store.SetLocale(loc); err != nil {
		m.statusMsg = err.Error()
	}
	if m.catalog != nil {
		table := m.catalog.TranslationsKZ
		m.store.RelabelOptions(func(value string) string {
			return i18n.Translate(loc, value, table)
		})
	}
	m.input.Placeholder = i18n.T(loc, i18n.KeyInputPlaceholder)
	m.refreshViewport(false)
	return m, nil
}

// cycleFocus rotates input, options, and sidebar focus.
func (m *Model) cycleFocus() {
	hasOptions := len(m.visibleOptions()) > 0
	hasSidebar := m.theme.GetLayoutMode() != styles.LayoutNarrow

	switch m.focus {
	case FocusInput:
		if hasOptions {
			m.focus = FocusOptions
		} else if hasSidebar {
			m.focus = FocusSidebar
		}
	case FocusOptions:
		if hasSidebar {
			m.focus = FocusSidebar
		} else {
			m.focus = FocusInput
		}
	case FocusSidebar:
		m.focus = FocusInput
	}

	if m.focus == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// visibleOptions returns the options of the newest options message.
func (m Model) visibleOptions() []model.Option {
	conv := m.store.Active()
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Kind == model.KindOptions {
			return conv.Messages[i].Options
		}
	}
	return nil
}
