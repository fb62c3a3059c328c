// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for askdesk.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChats
	CmdConfig
	CmdAdmin
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool // Output in JSON format
	Locale  string
	Server  string // Override server.base_url for this invocation

	// Command-specific
	Query       string
	Category    string
	Subcategory string
	Report      string
	ConfigKey   string
	ConfigVal   string
	Subcommand  string
	Output      string // Destination file for export commands
	Confirm     bool

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --from, --to)
	Options map[string]string
}

const usageText = `askdesk - terminal client for the askdesk assistant

Askdesk talks to an assistant backend that answers questions about
reports and documents, streams its answers token by token, and keeps
your conversations on the server.

Usage:
  askdesk                     Start TUI (default)
  askdesk ask "question"      Ask a single question, print the answer
  askdesk chats [subcommand]  Saved conversation management
  askdesk config [show|get|set|path|reset]  Configuration
  askdesk admin [subcommand]  Administrative operations
  askdesk version             Show version information
  askdesk help                Show this help

Ask Command:
  askdesk ask "question"            Ask and stream the answer to stdout
    --category NAME                 Scope the question to a category
    --subcategory NAME              Scope to a subcategory
    --report NAME                   Scope to a specific report
    --locale ru|kz                  Answer language (default: config)
    --json                          Emit the answer and metadata as JSON
  echo "question" | askdesk ask     Read the question from stdin

Chats Commands:
  askdesk chats list                List saved conversations
  askdesk chats show <id>           Print a conversation transcript
  askdesk chats delete <id>         Hide a conversation locally
    --confirm                       Skip the confirmation prompt

Config Commands:
  askdesk config show               Show current configuration
  askdesk config get <key>          Print one value (dot notation)
  askdesk config set <key> <value>  Set a value and save
  askdesk config path               Show config file locations
  askdesk config reset              Restore defaults

  Keys use dot notation, e.g. server.base_url, chat.locale,
  storage.backend, ui.theme. Run "config show" for the full list.

Admin Commands (require an account with admin rights):
  askdesk admin check               Verify admin access
  askdesk admin export-feedback     Download the feedback workbook
    --from YYYY-MM-DD               Start date filter
    --to YYYY-MM-DD                 End date filter
    --output FILE                   Destination (default: feedback.xlsx)
  askdesk admin kb-export           Download the knowledge base workbook
    --output FILE                   Destination (default: knowledge.xlsx)
  askdesk admin kb-import FILE      Upload a knowledge base workbook

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output (wire protocol logging)
  --json          Output in JSON format
  --locale CODE   Override the configured locale (ru or kz)
  --server URL    Override the configured server URL

Examples:
  askdesk                                   Start the TUI
  askdesk ask "Как сформировать отчёт?"     One-shot question
  askdesk ask --category "Отчёты" "..."     Scoped question
  askdesk chats list                        List saved conversations
  askdesk chats show 42                     Print transcript of chat 42
  askdesk config set chat.locale kz         Switch to Kazakh
  askdesk admin export-feedback --from 2026-01-01 --to 2026-06-30

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("askdesk version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split out from Parse so tests
// can drive it without touching os.Args.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chats", "chat", "conversations":
		parseChatsArgs(&parsedArgs, remaining)
		return CmdChats, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "admin":
		parseAdminArgs(&parsedArgs, remaining)
		return CmdAdmin, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown first argument. Treat the whole command line as a
		// question so "askdesk how do I ..." still works.
		parsedArgs.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--locale":
			if i+1 < len(args) {
				i++
				parsedArgs.Locale = args[i]
			}
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.Server = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--locale=") {
				parsedArgs.Locale = strings.TrimPrefix(arg, "--locale=")
			} else if strings.HasPrefix(arg, "--server=") {
				parsedArgs.Server = strings.TrimPrefix(arg, "--server=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-c", "--category":
			if i+1 < len(remaining) {
				i++
				args.Category = remaining[i]
			}
		case "-s", "--subcategory":
			if i+1 < len(remaining) {
				i++
				args.Subcategory = remaining[i]
			}
		case "-r", "--report":
			if i+1 < len(remaining) {
				i++
				args.Report = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--category=") {
				args.Category = strings.TrimPrefix(arg, "--category=")
			} else if strings.HasPrefix(arg, "--subcategory=") {
				args.Subcategory = strings.TrimPrefix(arg, "--subcategory=")
			} else if strings.HasPrefix(arg, "--report=") {
				args.Report = strings.TrimPrefix(arg, "--report=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatsArgs parses chats command specific arguments.
func parseChatsArgs(args *Args, remaining []string) {
	var positional []string
	for _, arg := range remaining {
		if arg == "--confirm" {
			args.Confirm = true
			continue
		}
		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
		}
	}
	if len(positional) > 0 {
		args.Subcommand = strings.ToLower(positional[0])
	}
	if len(positional) > 1 {
		args.Query = positional[1]
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// parseAdminArgs parses admin command specific arguments.
func parseAdminArgs(args *Args, remaining []string) {
	var positional []string
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch arg {
		case "--from":
			if i+1 < len(remaining) {
				i++
				args.Options["from"] = remaining[i]
			}
		case "--to":
			if i+1 < len(remaining) {
				i++
				args.Options["to"] = remaining[i]
			}
		case "-o", "--output":
			if i+1 < len(remaining) {
				i++
				args.Output = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--from=") {
				args.Options["from"] = strings.TrimPrefix(arg, "--from=")
			} else if strings.HasPrefix(arg, "--to=") {
				args.Options["to"] = strings.TrimPrefix(arg, "--to=")
			} else if strings.HasPrefix(arg, "--output=") {
				args.Output = strings.TrimPrefix(arg, "--output=")
			} else if !strings.HasPrefix(arg, "-") {
				positional = append(positional, arg)
			}
		}
	}
	if len(positional) > 0 {
		args.Subcommand = strings.ToLower(positional[0])
	}
	if len(positional) > 1 {
		args.Query = positional[1]
	}
}
