// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// Styles must be usable immediately after construction.
	out := theme.UserBubble.Render("hello")
	if !strings.Contains(out, "hello") {
		t.Errorf("UserBubble should render its content, got %q", out)
	}
	out = theme.AssistantBubble.Render("world")
	if !strings.Contains(out, "world") {
		t.Errorf("AssistantBubble should render its content, got %q", out)
	}
	out = theme.NoticeBubble.Render("notice")
	if !strings.Contains(out, "notice") {
		t.Errorf("NoticeBubble should render its content, got %q", out)
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)

	if theme.Width != 120 {
		t.Errorf("Width = %d, want 120", theme.Width)
	}
	if theme.Height != 40 {
		t.Errorf("Height = %d, want 40", theme.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		name  string
		width int
		want  LayoutMode
	}{
		{"very narrow", 40, LayoutNarrow},
		{"boundary below narrow", 59, LayoutNarrow},
		{"medium lower bound", 60, LayoutMedium},
		{"medium typical", 80, LayoutMedium},
		{"boundary below wide", 99, LayoutMedium},
		{"wide lower bound", 100, LayoutWide},
		{"very wide", 200, LayoutWide},
	}

	theme := NewTheme()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme.SetSize(tt.width, 24)
			if got := theme.GetLayoutMode(); got != tt.want {
				t.Errorf("GetLayoutMode() at width %d = %v, want %v", tt.width, got, tt.want)
			}
		})
	}
}

func TestFormLabelWidth(t *testing.T) {
	theme := NewTheme()

	// Labels are fixed-width so form fields align vertically.
	short := theme.FormLabel.Render("Name")
	long := theme.FormLabel.Render("Organization")
	if len([]rune(stripANSI(short))) != len([]rune(stripANSI(long))) {
		t.Errorf("form labels should render at a fixed width: %q vs %q", short, long)
	}
}

func TestStatusStylesRenderContent(t *testing.T) {
	theme := NewTheme()
	styles := []struct {
		name   string
		render func(...string) string
	}{
		{"SuccessStyle", theme.SuccessStyle.Render},
		{"ErrorStyle", theme.ErrorStyle.Render},
		{"WarningStyle", theme.WarningStyle.Render},
		{"InfoStyle", theme.InfoStyle.Render},
		{"LinkStyle", theme.LinkStyle.Render},
	}

	for _, s := range styles {
		if out := s.render("status"); !strings.Contains(out, "status") {
			t.Errorf("%s should render its content, got %q", s.name, out)
		}
	}
}

// stripANSI removes escape sequences so width assertions see only text.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
