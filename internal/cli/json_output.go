// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON envelope for scripted use of the CLI.
//
// With --json every command prints one envelope to stdout; progress and
// human-readable notes go to stderr so the stream stays parseable.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/askdesk/askdesk-tui/internal/api"
)

// JSONResponse is the envelope every command emits in JSON mode.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse wraps command output in a success envelope.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse wraps a command failure in the same envelope.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the envelope to stdout.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// StderrPrint prints human-readable progress to stderr, keeping stdout
// clean for the JSON envelope.
func StderrPrint(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// StderrPrintln prints a line to stderr.
func StderrPrintln(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
}

// =============================================================================
// PER-COMMAND DATA PAYLOADS
// =============================================================================

// AskData is the ask command's payload: the streamed answer plus the
// metadata that arrived with it.
type AskData struct {
	Question       string            `json:"question"`
	Answer         string            `json:"answer"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Documents      []api.DocumentRef `json:"documents,omitempty"`
	ElapsedMs      int64             `json:"elapsed_ms"`
}

// ChatSummaryData is one row of the chats list.
type ChatSummaryData struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Deleted bool   `json:"deleted,omitempty"`
}

// ChatTranscriptData is the chats show payload.
type ChatTranscriptData struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Messages []ChatTranscriptEntry `json:"messages"`
}

// ChatTranscriptEntry is one turn of a transcript.
type ChatTranscriptEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ExportData reports where an admin export landed and how large it was.
type ExportData struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}
