// askdesk - terminal client for the askdesk assistant backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/askdesk/askdesk-tui/internal/cli"
	"github.com/askdesk/askdesk-tui/internal/config"
	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/store"
	"github.com/askdesk/askdesk-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		if err := cli.HandleAsk(args); err != nil {
			cli.HandleErrorAndExit(err, args.JSON)
		}
	case cli.CmdChats:
		if err := cli.HandleChats(args); err != nil {
			cli.HandleErrorAndExit(err, args.JSON)
		}
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			cli.HandleErrorAndExit(err, args.JSON)
		}
	case cli.CmdAdmin:
		if err := cli.HandleAdmin(args); err != nil {
			cli.HandleErrorAndExit(err, args.JSON)
		}
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		cli.PrintUsage()
		os.Exit(1)
	}
}

// runTUI starts the interactive chat interface.
func runTUI(args cli.Args) {
	// RELIABILITY: refuse to start the full-screen UI on a pipe, so that
	// scripted invocations fail fast instead of emitting escape sequences.
	if !cli.IsTTY() {
		cli.HandleErrorAndExit(cli.RequiresTTY("run the interactive chat"), args.JSON)
	}

	cfg := config.Global()

	state, kv, err := cli.OpenState()
	if err != nil {
		cli.HandleErrorAndExit(err, args.JSON)
	}
	defer kv.Close()

	st := store.New(state)

	// CLI locale flag overrides the config and becomes the new persisted
	// choice, same as toggling the locale inside the TUI.
	if args.Locale != "" {
		st.SetLocale(i18n.Match(args.Locale))
	}

	client := cli.NewClient(args)

	m := chat.New(client, st, state, *cfg)

	// Pick up config edits made while the TUI is running. The watcher only
	// refreshes the global snapshot; the next client-side operation reads
	// the new values.
	watcher, err := config.NewWatcher(func(updated *config.Config) {
		config.SetGlobal(updated)
	})
	if err == nil {
		if werr := watcher.Watch(); werr == nil {
			defer watcher.Close()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running askdesk: %v\n", err)
		os.Exit(1)
	}
}
