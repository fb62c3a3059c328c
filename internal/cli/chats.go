// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chats.go - Saved conversation management for the askdesk CLI.
//
// CLI: Comprehensive help and examples for all commands
//
// Conversations live on the server; deletion is local-only. The backend has
// no delete endpoint, so "delete" records the id in the local state and every
// list afterwards hides it.
//
// Commands:
//   askdesk chats list           List saved conversations
//   askdesk chats show <id>      Print a conversation transcript
//   askdesk chats delete <id>    Hide a conversation locally (--confirm to skip prompt)
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/config"
	"github.com/askdesk/askdesk-tui/internal/persist"
)

// requestTimeout bounds the non-streaming API calls made by CLI commands.
func requestTimeout() time.Duration {
	secs := config.Global().Server.TimeoutSecs
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

// OpenState opens the local persistent state using the configured backend.
// The caller must Close the returned store.
func OpenState() (*persist.State, persist.Store, error) {
	cfg := config.Global()

	var (
		store persist.Store
		err   error
	)
	switch cfg.Storage.Backend {
	case "memory":
		store = persist.NewMemoryStore()
	case "file":
		path, perr := cfg.StoragePath()
		if perr != nil {
			return nil, nil, perr
		}
		store, err = persist.OpenFileStore(path)
	default:
		path, perr := cfg.StoragePath()
		if perr != nil {
			return nil, nil, perr
		}
		store, err = persist.OpenSQLiteStore(path)
	}
	if err != nil {
		return nil, nil, WrapError(err, "opening local state")
	}

	state, err := persist.NewState(store)
	if err != nil {
		store.Close()
		return nil, nil, WrapError(err, "loading local state")
	}
	return state, store, nil
}

// HandleChats dispatches the chats subcommands.
func HandleChats(args Args) error {
	switch args.Subcommand {
	case "", "list", "ls", "l":
		return handleChatsList(args)
	case "show":
		return handleChatsShow(args)
	case "delete", "rm":
		return handleChatsDelete(args)
	default:
		return NewValidationErrorWithExample(
			"subcommand", args.Subcommand, "unknown chats subcommand",
			"askdesk chats [list|show|delete]")
	}
}

// handleChatsList lists the saved conversations, hiding locally deleted ones.
func handleChatsList(args Args) error {
	state, store, err := OpenState()
	if err != nil {
		return err
	}
	defer store.Close()

	client := NewClient(args)
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	summaries, err := client.MyConversations(ctx)
	if err != nil {
		return WrapError(err, "listing conversations")
	}

	var visible []ChatSummaryData
	for _, s := range summaries {
		id := s.ID.String()
		if state.IsDeleted(id) {
			continue
		}
		visible = append(visible, ChatSummaryData{ID: id, Title: s.Title})
	}

	if args.JSON {
		return NewJSONResponse("chats list", visible).Print()
	}

	if len(visible) == 0 {
		fmt.Println(DimStyle.Render("No saved conversations."))
		return nil
	}

	fmt.Println(TitleStyle.Render("Saved conversations"))
	for _, c := range visible {
		fmt.Printf("  %s  %s\n", HighlightStyle.Render(c.ID), ValueStyle.Render(c.Title))
	}
	return nil
}

// handleChatsShow prints one conversation transcript.
func handleChatsShow(args Args) error {
	id := args.Query
	if id == "" {
		return ErrMissingArgument("conversation id", "askdesk chats show 42")
	}

	client := NewClient(args)
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	hist, err := client.ConversationHistory(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return ErrNotFound("conversation", id)
		}
		return WrapError(err, "loading conversation")
	}

	if args.JSON {
		data := ChatTranscriptData{ID: hist.ID.String(), Title: hist.Title}
		for _, m := range hist.Messages {
			data.Messages = append(data.Messages, ChatTranscriptEntry{Role: m.Type, Text: m.Text})
		}
		return NewJSONResponse("chats show", data).Print()
	}

	title := hist.Title
	if title == "" {
		title = id
	}
	fmt.Println(TitleStyle.Render(title))

	markdown := IsStdoutTTY() && config.Global().UI.Markdown
	for _, m := range hist.Messages {
		switch m.Type {
		case "user":
			fmt.Printf("%s %s\n", HighlightStyle.Render(">"), ValueStyle.Render(m.Text))
		default:
			if markdown {
				fmt.Print(renderMarkdown(m.Text))
			} else {
				fmt.Println(m.Text)
			}
		}
		fmt.Println()
	}
	return nil
}

// handleChatsDelete hides a conversation locally.
func handleChatsDelete(args Args) error {
	id := args.Query
	if id == "" {
		return ErrMissingArgument("conversation id", "askdesk chats delete 42 --confirm")
	}

	confirmed, err := RequireConfirmation(args.Confirm, "hide conversation "+id, args.JSON)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}

	state, store, err := OpenState()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := state.MarkDeleted(id); err != nil {
		return WrapError(err, "recording deletion")
	}

	if args.JSON {
		return NewJSONResponse("chats delete", ChatSummaryData{ID: id, Deleted: true}).Print()
	}
	fmt.Printf("%s conversation %s hidden\n", SuccessStyle.Render("[OK]"), id)
	return nil
}
