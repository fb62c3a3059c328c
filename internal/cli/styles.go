// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for CLI output.
//
// USABILITY: TTY detection for proper terminal handling
//
// The ask/chats/config/admin commands print through these styles so
// transcripts, config listings, and export results look alike. Colors
// follow ColorsEnabled: piped output and NO_COLOR environments get
// plain text.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

func init() {
	// Pin the lipgloss profile once so every style in the package obeys
	// NO_COLOR, FORCE_COLOR, and the pipe/TTY distinction.
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// TitleStyle heads a command's output (transcript title, config file).
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	// SectionStyle marks groups inside one command's output.
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginTop(1)

	// LabelStyle is the fixed-width left column of label/value rows.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(20)

	// ValueStyle is the value column and ordinary body text.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// SuccessStyle marks completed operations ([OK] lines).
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// ErrorStyle marks failures ([ERROR] lines).
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// WarningStyle marks degraded results, such as a stream that ended
	// early with partial text.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle is for hints, progress notes, and other secondary text.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SeparatorStyle draws rules between transcript turns.
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// HighlightStyle emphasizes values the user asked about.
	HighlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	// InfoStyle is for neutral informational lines.
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))
)

// RenderLabel renders a label at the shared column width, or at an
// explicit width for wider tables.
func RenderLabel(label string, width ...int) string {
	if len(width) > 0 && width[0] > 0 {
		return LabelStyle.Copy().Width(width[0]).Render(label)
	}
	return LabelStyle.Render(label)
}
