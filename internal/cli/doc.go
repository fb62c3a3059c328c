// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for askdesk.
//
// This package implements the non-interactive commands of the askdesk client.
// Running the binary without a command starts the TUI; everything else is
// handled here.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - JSONResponse: Standardized JSON output envelope for scripted use
//
// # Usage
//
// Parse and dispatch commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    return cli.HandleAsk(args)
//	case cli.CmdChats:
//	    return cli.HandleChats(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: Single question, streamed answer
//   - chats: Saved conversation listing, transcripts, local deletion
//   - config: Configuration management (show/get/set/path/reset)
//   - admin: Feedback export, knowledge base export and import
//   - version, help
//
// All commands support a --json flag for scripted use.
package cli
