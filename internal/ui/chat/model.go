// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view of the askdesk TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/config"
	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/nav"
	"github.com/askdesk/askdesk-tui/internal/persist"
	"github.com/askdesk/askdesk-tui/internal/store"
	"github.com/askdesk/askdesk-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// Focus identifies which pane receives key input.
type Focus int

const (
	FocusInput   Focus = iota // Text input at the bottom
	FocusOptions              // Option list inside the transcript
	FocusSidebar              // Saved conversation list
	FocusForm                 // Registration form overlay
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Non-UI core
	client    *api.Client
	store     *store.Store
	state     *persist.State
	navigator *nav.Navigator

	// catalog is kept for its translation table; navigation state lives
	// in the navigator.
	catalog *api.CategoriesResponse

	// Config snapshot taken at startup
	cfg config.Config

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Focus and cursors
	focus         Focus
	optionCursor  int
	sidebarCursor int

	// In-flight streams, keyed by placeholder id. The value is the
	// channel the pump goroutine delivers events on.
	streams map[string]chan tea.Msg

	// Conversations whose history fetch is in flight, to avoid duplicate
	// requests on repeated switches.
	historyPending map[string]bool

	// Registration form overlay, nil when closed
	form *FormModel

	// Cached region list for the registration form
	regions []string

	// Markdown rendering, lazily built and invalidated on resize
	mdRenderer *glamour.TermRenderer
	mdCache    map[string]renderedMarkdown

	// Transient status line, cleared on the next key press
	statusMsg string

	// Last unrecoverable error, shown in an error box
	lastError error

	// Streaming indicator state
	thinking      bool
	thinkingStart time.Time
}

// New creates a chat model wired to the given clients and state.
func New(client *api.Client, st *store.Store, ps *persist.State, cfg config.Config) Model {
	theme := styles.NewTheme()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = i18n.T(i18n.Match(cfg.Chat.Locale), i18n.KeyInputPlaceholder)
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII frames keep the spinner legible on non-UTF8 terminals.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return Model{
		theme:          theme,
		client:         client,
		store:          st,
		state:          ps,
		navigator:      nav.New(),
		cfg:            cfg,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		keyMap:         DefaultKeyMap(),
		focus:          FocusInput,
		streams:        make(map[string]chan tea.Msg),
		historyPending: make(map[string]bool),
		mdCache:        make(map[string]renderedMarkdown),
	}
}

// Init fetches the category catalog and, when enabled, the saved
// conversation list.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{fetchCatalogCmd(m.client)}
	if m.cfg.Chat.LoadHistory {
		cmds = append(cmds, fetchSavedCmd(m.client))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// locale returns the store's active locale.
func (m Model) locale() i18n.Locale {
	return m.store.Locale()
}

// Streaming reports whether any answer is still arriving.
func (m Model) Streaming() bool {
	return len(m.streams) > 0
}
