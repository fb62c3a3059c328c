// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view of the askdesk TUI.
//
// This file renders the chat layout: header, optional sidebar, transcript
// viewport, input area, and status bar. The registration form replaces
// the transcript while open.
package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/model"
	"github.com/askdesk/askdesk-tui/internal/ui/styles"
	"github.com/askdesk/askdesk-tui/internal/util"
)

// Fixed row heights of the chrome around the transcript.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes component dimensions after a terminal resize.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	contentWidth := width
	if m.sidebarVisible() {
		contentWidth -= m.sidebarWidth()
	}
	if contentWidth < 20 {
		contentWidth = 20
	}

	vpHeight := height - headerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = contentWidth
	m.viewport.Height = vpHeight
	m.input.Width = contentWidth - 6

	// The markdown renderer wraps to the bubble width, so it must track
	// resizes.
	m.mdRenderer = nil
	m.mdCache = make(map[string]renderedMarkdown)
	m.refreshViewport(false)
}

// sidebarVisible reports whether the layout has room for the sidebar.
func (m Model) sidebarVisible() bool {
	return m.theme.GetLayoutMode() != styles.LayoutNarrow
}

// sidebarWidth returns the configured sidebar width, clamped to sane
// bounds.
func (m Model) sidebarWidth() int {
	w := m.cfg.UI.SidebarWidth
	if w < 16 {
		w = 16
	}
	if w > m.width/3 && m.width > 0 {
		w = m.width / 3
	}
	return w
}

// bubbleWidth is the wrap width for message bubbles.
func (m Model) bubbleWidth() int {
	w := m.viewport.Width - 6
	if w < 16 {
		w = 16
	}
	return w
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole chat screen.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var center string
	if m.form != nil {
		center = lipgloss.Place(
			m.viewport.Width, m.viewport.Height,
			lipgloss.Center, lipgloss.Center,
			m.form.View(m.viewport.Width),
		)
	} else {
		center = m.viewport.View()
	}

	main := center
	if m.sidebarVisible() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), center)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		main,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// renderHeader renders the title row with the locale badge.
func (m Model) renderHeader() string {
	t := m.theme
	loc := m.locale()

	title := t.HeaderTitle.Render("askdesk")
	conv := m.store.Active().DisplayTitle(i18n.T(loc, i18n.KeyDefaultChatTitle))
	subtitle := t.HeaderSubtitle.Render(util.TruncateWidth(conv, m.width/2))

	badge := t.LocaleBadge.Render(strings.ToUpper(loc.String()))

	left := title + " " + subtitle
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	return t.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + badge)
}

// renderSidebar renders the saved conversation list.
func (m Model) renderSidebar() string {
	t := m.theme
	loc := m.locale()
	width := m.sidebarWidth()

	var rows []string
	rows = append(rows, t.SidebarTitle.Render(i18n.T(loc, i18n.KeyNewChat)+"  C-n"))

	active := m.store.Active()
	for i, conv := range m.store.Conversations() {
		label := conv.DisplayTitle(i18n.T(loc, i18n.KeyDefaultChatTitle))
		label = util.TruncateWidth(label, width-4)

		style := t.ChatItem
		switch {
		case m.focus == FocusSidebar && i == m.sidebarCursor:
			style = t.ChatItemSelected
		case conv == active:
			style = t.ChatItemActive
		}
		rows = append(rows, style.Render(label))
	}

	return t.Sidebar.
		Width(width).
		Height(m.viewport.Height).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderInput renders the input container, or the thinking indicator
// while an answer is streaming.
func (m Model) renderInput() string {
	t := m.theme
	if m.thinking {
		indicator := m.spinner.View() + " " + t.ThinkingText.Render(i18n.T(m.locale(), i18n.KeyTypingIndicator))
		return t.InputContainer.Width(m.width - 2).Render(indicator)
	}
	return t.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// renderStatusBar renders the transient status or the shortcut help.
func (m Model) renderStatusBar() string {
	t := m.theme
	if m.statusMsg != "" {
		return t.StatusBar.Width(m.width).Render(util.TruncateWidth(m.statusMsg, m.width-2))
	}

	var parts []string
	for _, b := range m.keyMap.ShortHelp() {
		parts = append(parts, t.ShortcutKey.Render(b.Help().Key)+" "+t.ShortcutDesc.Render(b.Help().Desc))
	}
	return t.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport(goToBottom bool) {
	m.viewport.SetContent(m.renderTranscript())
	if goToBottom {
		m.viewport.GotoBottom()
	}
}

// renderTranscript renders every message of the active conversation.
func (m *Model) renderTranscript() string {
	conv := m.store.Active()
	width := m.bubbleWidth()

	var blocks []string
	for _, msg := range conv.Messages {
		switch msg.Kind {
		case model.KindUser:
			blocks = append(blocks, m.renderUser(msg, width))
		case model.KindAssistant:
			blocks = append(blocks, m.renderAssistant(msg, width))
		case model.KindNotice:
			blocks = append(blocks, m.theme.NoticeBubble.Width(width).Render(msg.Text))
		case model.KindOptions:
			blocks = append(blocks, m.renderOptions(msg, width))
		}
	}
	return strings.Join(blocks, "\n")
}

// renderUser renders one user bubble.
func (m *Model) renderUser(msg *model.Message, width int) string {
	out := m.theme.UserBubble.MaxWidth(width).Render(msg.Text)
	if m.cfg.UI.ShowTimestamps {
		out += "\n" + m.theme.ChatMeta.Render(formatTimestamp(msg.Timestamp))
	}
	return out
}

// renderAssistant renders one assistant bubble with feedback and source
// annotations.
func (m *Model) renderAssistant(msg *model.Message, width int) string {
	t := m.theme

	text := msg.Text
	if msg.Streaming && text == "" {
		text = m.spinner.View()
	} else if !msg.Streaming {
		text = m.renderMarkdown(msg, width)
	}
	out := t.AssistantBubble.MaxWidth(width).Render(text)

	switch msg.Feedback {
	case model.FeedbackGood:
		out += "\n" + t.FeedbackGood.Render(styles.StatusIndicators.Success+" "+i18n.T(m.locale(), i18n.KeyFeedbackThanks))
	case model.FeedbackBad:
		out += "\n" + t.FeedbackBad.Render(styles.StatusIndicators.Error)
	}

	if len(msg.FilePaths) > 0 && !msg.Streaming {
		var lines []string
		lines = append(lines, t.ChatMeta.Render(i18n.T(m.locale(), i18n.KeyAttachedFiles)))
		for _, p := range msg.FilePaths {
			lines = append(lines, t.SourceLink.Render("  "+p))
		}
		out += "\n" + strings.Join(lines, "\n")
	}

	if m.cfg.UI.ShowTimestamps && !msg.Streaming {
		out += "\n" + t.ChatMeta.Render(formatTimestamp(msg.Timestamp))
	}
	return out
}

// renderOptions renders a numbered option list.
func (m *Model) renderOptions(msg *model.Message, width int) string {
	t := m.theme

	var rows []string
	for i, opt := range msg.Options {
		label := util.TruncateWidth(opt.Label, width-4)
		if m.focus == FocusOptions && i == m.optionCursor {
			rows = append(rows, t.OptionSelected.Render("> "+label))
		} else {
			rows = append(rows, t.OptionItem.Render("  "+label))
		}
	}
	if m.focus == FocusOptions {
		rows = append(rows, t.OptionHint.Render("Enter: выбрать  Esc: ввод текста"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// renderedMarkdown caches one rendered message so the transcript does not
// re-render markdown on every frame.
type renderedMarkdown struct {
	textLen int
	out     string
}

// renderMarkdown renders an assistant answer as markdown, falling back to
// the raw text when rendering is disabled or fails.
func (m *Model) renderMarkdown(msg *model.Message, width int) string {
	if !m.cfg.UI.Markdown {
		return msg.Text
	}
	if cached, ok := m.mdCache[msg.ID]; ok && cached.textLen == len(msg.Text) {
		return cached.out
	}

	if m.mdRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return msg.Text
		}
		m.mdRenderer = r
	}

	out, err := m.mdRenderer.Render(msg.Text)
	if err != nil {
		return msg.Text
	}
	out = strings.TrimRight(out, "\n")
	if m.mdCache == nil {
		m.mdCache = make(map[string]renderedMarkdown)
	}
	m.mdCache[msg.ID] = renderedMarkdown{textLen: len(msg.Text), out: out}
	return out
}
