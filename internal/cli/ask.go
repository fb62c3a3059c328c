// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the askdesk CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering for better CLI experience
//
// Handles the "askdesk ask" command which sends a single question to the
// assistant backend and streams the answer to stdout. Markdown rendering is
// applied only when stdout is a TTY; piped output stays plain so the answer
// can feed other tools.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   askdesk ask "Как сформировать отчёт?"
//   askdesk ask --category "Отчёты" "Где взять данные за квартал?"
//   askdesk ask --json "Статус загрузки"
//   echo "question" | askdesk ask
//
// Flags:
//   -c, --category NAME     Scope the question to a category
//   -s, --subcategory NAME  Scope to a subcategory
//   -r, --report NAME       Scope to a specific report
//   --locale ru|kz          Answer language (overrides config)
//   --json                  Output answer and metadata as JSON
//   -q, --quiet             Minimal output
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/config"
	"github.com/askdesk/askdesk-tui/internal/i18n"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown answers with formatting and syntax highlighting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// =============================================================================
// CLIENT CONSTRUCTION
// =============================================================================

// NewClient builds an API client from the global config plus per-invocation
// overrides.
func NewClient(args Args) *api.Client {
	cfg := config.Global()
	baseURL := cfg.Server.BaseURL
	if args.Server != "" {
		baseURL = args.Server
	}
	return api.New(baseURL, cfg.Server.Username, cfg.Server.Password)
}

// askLocale resolves the answer locale for this invocation.
func askLocale(args Args) string {
	if args.Locale != "" {
		return string(i18n.Match(args.Locale))
	}
	return string(i18n.Match(config.Global().Chat.Locale))
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk handles the ask command: one question, one streamed answer.
func HandleAsk(args Args) error {
	question := strings.TrimSpace(args.Query)

	// No question on the command line: accept one from a pipe.
	if question == "" && !IsTTY() {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return WrapError(err, "reading question from stdin")
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return ErrMissingArgument("question", `askdesk ask "How do I build the report?"`)
	}

	cfg := config.Global()
	category := args.Category
	if category == "" {
		category = cfg.Chat.Category
	}

	client := NewClient(args)
	ctx, cancel := context.WithTimeout(context.Background(), api.StreamTimeout())
	defer cancel()

	if !args.Quiet && !args.JSON {
		StderrPrint("%s asking %s\n", DimStyle.Render("[+]"), DimStyle.Render(client.BaseURL()))
	}

	started := time.Now()
	body, err := client.Ask(ctx, api.AskParams{
		Prompt:            question,
		Locale:            askLocale(args),
		Category:          category,
		Subcategory:       args.Subcategory,
		SubcategoryReport: args.Report,
	})
	if err != nil {
		return WrapError(err, "ask request")
	}
	defer body.Close()

	var (
		printed int // bytes of the answer already written to stdout
		docs    []api.DocumentRef
		convID  string
	)

	renderAtEnd := IsStdoutTTY() && cfg.UI.Markdown && !args.JSON

	answer, err := api.ReadStream(ctx, body, func(ev api.Event) {
		switch ev.Type {
		case api.EventText:
			// Plain mode streams the answer as it arrives. Events carry the
			// full accumulated text, so only the new suffix is written.
			if !renderAtEnd && !args.JSON && len(ev.Text) > printed {
				fmt.Print(ev.Text[printed:])
				printed = len(ev.Text)
			}
		case api.EventFinalText:
			// The backend replaced the answer wholesale; restart plain output.
			if !renderAtEnd && !args.JSON {
				if printed > 0 {
					fmt.Println()
				}
				fmt.Print(ev.Text)
				printed = len(ev.Text)
			}
		case api.EventMeta:
			switch ev.Meta.Type {
			case "conversation":
				convID = ev.Meta.ConversationID.String()
			case "relevant_documents":
				docs = append(docs, ev.Meta.Documents...)
				for _, p := range ev.Meta.Paths {
					docs = append(docs, api.DocumentRef{Path: p})
				}
			}
		}
	})
	if err != nil {
		// A partial answer is still worth keeping; report the failure after it.
		if answer == "" {
			return WrapError(err, "streaming answer")
		}
		StderrPrint("\n%s stream ended early: %v\n", WarningStyle.Render("[!]"), err)
	}

	elapsed := time.Since(started)

	if args.JSON {
		return outputJSON(AskData{
			Question:       question,
			Answer:         answer,
			ConversationID: convID,
			Documents:      docs,
			ElapsedMs:      elapsed.Milliseconds(),
		})
	}

	if renderAtEnd {
		fmt.Print(renderMarkdown(answer))
	} else if printed > 0 {
		fmt.Println()
	}

	displayAskSummary(convID, docs, elapsed, args.Quiet)
	return nil
}

// displayAskSummary prints sources and timing to stderr so stdout stays
// clean for the answer itself.
func displayAskSummary(convID string, docs []api.DocumentRef, elapsed time.Duration, quiet bool) {
	if quiet {
		return
	}

	StderrPrintln(SeparatorStyle.Render(strings.Repeat("─", 45)))
	if len(docs) > 0 {
		StderrPrintln(DimStyle.Render("Sources:"))
		for _, d := range docs {
			label := d.Title
			if label == "" {
				label = d.Path
			}
			StderrPrint("  %s %s\n", DimStyle.Render("-"), ValueStyle.Render(label))
		}
	}
	if convID != "" {
		StderrPrint("%s %s\n", DimStyle.Render("Conversation:"), ValueStyle.Render(convID))
	}
	StderrPrint("%s %s\n", DimStyle.Render("Elapsed:"), ValueStyle.Render(formatDurationShort(elapsed)))
}
