// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat implements the interactive chat view of the askdesk TUI.

The package is a single Bubble Tea model wired to the non-UI core:

  - internal/store owns the conversation list and applies decoder events
  - internal/nav drives category and FAQ navigation
  - internal/api talks to the support backend and decodes the stream
  - internal/persist remembers ratings, deletions, and the locale

# Message flow

Sending a prompt is a two-step handshake with the store. Update calls
store.Post, which appends the user message plus a streaming assistant
placeholder and returns the placeholder id. A background goroutine then
issues the HTTP request and pumps every decoded event into a channel;
Update applies each event to the store via ApplyEvent, addressed by the
placeholder id. Because the placeholder exists before the request is
made, events route correctly even when the user switches conversations
mid-stream.

# Layout

The view is responsive. At LayoutWide and LayoutMedium a sidebar lists
saved conversations; at LayoutNarrow only the transcript, input, and
status bar are shown. The registration form renders as a modal overlay
on top of the transcript.
*/
package chat
