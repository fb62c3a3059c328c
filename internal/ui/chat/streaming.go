// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view of the askdesk TUI.
//
// This file drives answer streaming. Each ask request runs in its own
// goroutine that decodes the response body and forwards every event over
// a channel; the Bubble Tea loop drains the channel one message at a time
// via waitForStreamCmd. The channel is buffered so the decoder is never
// blocked behind a slow render.
package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/askdesk/askdesk-tui/internal/api"
)

// streamChanBuffer absorbs decoder bursts between renders.
const streamChanBuffer = 64

// startStreamCmd issues the ask request and pumps decoded events into ch.
// The command itself completes only when the stream ends; events reach the
// update loop through waitForStreamCmd. The final message on ch is always
// StreamDoneMsg, after which the channel is closed.
func startStreamCmd(client *api.Client, placeholderID string, params api.AskParams, ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)

		ctx, cancel := context.WithTimeout(context.Background(), api.StreamTimeout())
		defer cancel()

		body, err := client.Ask(ctx, params)
		if err != nil {
			ch <- StreamDoneMsg{PlaceholderID: placeholderID, Error: err}
			return nil
		}
		defer body.Close()

		_, err = api.ReadStream(ctx, body, func(ev api.Event) {
			ch <- StreamEventMsg{PlaceholderID: placeholderID, Event: ev}
		})
		ch <- StreamDoneMsg{PlaceholderID: placeholderID, Error: err}
		return nil
	}
}

// waitForStreamCmd delivers the next pumped message to the update loop.
// Update re-issues it after every StreamEventMsg until StreamDoneMsg
// arrives. A nil result means the channel was already drained and closed.
func waitForStreamCmd(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
