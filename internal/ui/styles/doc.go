// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the askdesk TUI.

This package defines the color palette and the themed Lip Gloss styles used
throughout the chat interface. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant messages and selections
  - Cyan - Brand color for info and user highlights
  - Emerald - Success states and positive feedback
  - Amber - Warnings and pending states
  - Rose - Errors and negative feedback

## Semantic Colors

Message bubbles and UI elements use semantic color tokens:

	UserBubbleBg      - Background for user messages
	UserBubbleFg      - Text color for user messages
	AssistantBubbleBg - Background for assistant messages
	AssistantBubbleFg - Text color for assistant messages
	NoticeBubbleBg    - Background for notices and greetings
	NoticeBubbleFg    - Text color for notices

## Surface Colors

Layered surface system for depth:

	Surface    - Elevated elements
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Overlays and popups

# Theme System (theme.go)

The Theme struct aggregates all component styles and is created once per
program run:

	theme := styles.NewTheme()
	theme.SetSize(width, height)

Themes detect the terminal color profile via termenv and degrade gracefully
on 256-color and 16-color terminals. SetSize recomputes size-dependent
styles; GetLayoutMode reports the responsive layout tier (narrow, medium,
wide) so views can hide the sidebar on small terminals.

# Accessibility

ACCESSIBILITY: status indicators pair every color with a text glyph
([OK], [X], [!]) so state is never conveyed by color alone. High-contrast
style variants are provided for success, error, warning, and info text.
*/
package styles
