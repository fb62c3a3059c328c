// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// admin.go - Administrative commands for the askdesk CLI.
//
// CLI: Comprehensive help and examples for all commands
// SECURITY: Credentials are never echoed; prompted reads use a masked prompt
//
// The admin endpoints require an account with admin rights on the backend.
// Credentials come from the config; when absent and stdin is a TTY the
// command prompts for them instead of failing.
//
// Commands:
//   askdesk admin check                 Verify admin access
//   askdesk admin export-feedback       Download the feedback workbook
//   askdesk admin kb-export             Download the knowledge base workbook
//   askdesk admin kb-import FILE        Upload a knowledge base workbook
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/config"
)

// adminClient builds an API client with admin credentials, prompting for
// missing ones when a TTY is available.
func adminClient(args Args) (*api.Client, error) {
	cfg := config.Global()
	baseURL := cfg.Server.BaseURL
	if args.Server != "" {
		baseURL = args.Server
	}
	username := cfg.Server.Username
	password := cfg.Server.Password

	if username == "" || password == "" {
		if err := RequiresTTY("prompt for admin credentials"); err != nil {
			return nil, err
		}

		line := liner.NewLiner()
		line.SetCtrlCAborts(true)
		defer line.Close()

		var err error
		if username == "" {
			username, err = line.Prompt("Username: ")
			if err != nil {
				return nil, WrapError(err, "reading username")
			}
			username = strings.TrimSpace(username)
		}
		if password == "" {
			password, err = line.PasswordPrompt("Password: ")
			if err != nil {
				return nil, WrapError(err, "reading password")
			}
		}
	}

	if username == "" {
		return nil, ErrMissingArgument("username", "askdesk config set server.username admin")
	}
	return api.New(baseURL, username, password), nil
}

// exportTimeout bounds workbook downloads, which can run well past the usual
// request timeout on large installations.
const exportTimeout = 5 * time.Minute

// HandleAdmin dispatches the admin subcommands.
func HandleAdmin(args Args) error {
	switch args.Subcommand {
	case "", "check":
		return handleAdminCheck(args)
	case "export-feedback", "feedback":
		return handleAdminExportFeedback(args)
	case "kb-export":
		return handleAdminKBExport(args)
	case "kb-import":
		return handleAdminKBImport(args)
	default:
		return NewValidationErrorWithExample(
			"subcommand", args.Subcommand, "unknown admin subcommand",
			"askdesk admin [check|export-feedback|kb-export|kb-import]")
	}
}

// handleAdminCheck verifies the account has admin rights.
func handleAdminCheck(args Args) error {
	client, err := adminClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	if err := client.CheckAdmin(ctx); err != nil {
		if args.JSON {
			NewJSONErrorResponse("admin check", err).Print()
			return err
		}
		return WrapError(err, "admin access denied")
	}

	if args.JSON {
		return NewJSONResponse("admin check", map[string]bool{"admin": true}).Print()
	}
	fmt.Printf("%s admin access confirmed\n", SuccessStyle.Render("[OK]"))
	return nil
}

// handleAdminExportFeedback downloads the feedback workbook.
func handleAdminExportFeedback(args Args) error {
	out := args.Output
	if out == "" {
		out = "feedback.xlsx"
	}
	path, err := ValidateOutputPath(out)
	if err != nil {
		return err
	}

	client, err := adminClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	f, err := os.Create(path)
	if err != nil {
		return WrapError(err, "creating output file")
	}
	defer f.Close()

	n, err := client.ExportFeedback(ctx, args.Options["from"], args.Options["to"], f)
	if err != nil {
		os.Remove(path)
		return WrapError(err, "exporting feedback")
	}

	if args.JSON {
		return NewJSONResponse("admin export-feedback", ExportData{Path: path, Bytes: n}).Print()
	}
	fmt.Printf("%s wrote %s (%s)\n", SuccessStyle.Render("[OK]"), path, formatBytes(n))
	return nil
}

// handleAdminKBExport downloads the knowledge base workbook.
func handleAdminKBExport(args Args) error {
	out := args.Output
	if out == "" {
		out = "knowledge.xlsx"
	}
	path, err := ValidateOutputPath(out)
	if err != nil {
		return err
	}

	client, err := adminClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	f, err := os.Create(path)
	if err != nil {
		return WrapError(err, "creating output file")
	}
	defer f.Close()

	n, err := client.KnowledgeExport(ctx, f)
	if err != nil {
		os.Remove(path)
		return WrapError(err, "exporting knowledge base")
	}

	if args.JSON {
		return NewJSONResponse("admin kb-export", ExportData{Path: path, Bytes: n}).Print()
	}
	fmt.Printf("%s wrote %s (%s)\n", SuccessStyle.Render("[OK]"), path, formatBytes(n))
	return nil
}

// handleAdminKBImport uploads a knowledge base workbook.
func handleAdminKBImport(args Args) error {
	path := args.Query
	if path == "" {
		return ErrMissingArgument("workbook file", "askdesk admin kb-import knowledge.xlsx")
	}
	if _, err := os.Stat(path); err != nil {
		return ErrNotFound("workbook", path)
	}

	client, err := adminClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	if err := client.KnowledgeImport(ctx, path); err != nil {
		return WrapError(err, "importing knowledge base")
	}

	if args.JSON {
		return NewJSONResponse("admin kb-import", map[string]string{"path": path}).Print()
	}
	fmt.Printf("%s knowledge base updated from %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}
