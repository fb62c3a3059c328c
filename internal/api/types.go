// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the askdesk assistant backend.
package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// FLEXIBLE ID
// =============================================================================

// FlexID is a conversation identifier as delivered by the backend.
// The server is inconsistent about the JSON type (string or number), so the
// field is normalized to its string form and compared by string equality.
type FlexID string

// UnmarshalJSON accepts both `"42"` and `42`.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("conversation id is neither string nor number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// String returns the normalized string form.
func (f FlexID) String() string { return string(f) }

// IsZero reports whether no id was present.
func (f FlexID) IsZero() bool { return f == "" }

// =============================================================================
// NAVIGATION PAYLOADS
// =============================================================================

// FAQ is a leaf prompt belonging to a category or subcategory.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// Subcategory groups report names under a category.
type Subcategory struct {
	Name    string   `json:"name"`
	Reports []string `json:"reports,omitempty"`
	FAQ     []FAQ    `json:"faq,omitempty"`
}

// Category is a top-level navigation option.
type Category struct {
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
	FAQ           []FAQ         `json:"faq,omitempty"`
}

// CategoriesResponse is the payload of GET /assistant/categories.
// TranslationsKZ maps canonical Russian labels to their Kazakh form.
type CategoriesResponse struct {
	Categories     []Category        `json:"categories"`
	TranslationsKZ map[string]string `json:"translations_kz,omitempty"`
}

// =============================================================================
// CONVERSATION PAYLOADS
// =============================================================================

// ConversationSummary is one entry of GET /conversation/my.
type ConversationSummary struct {
	ID    FlexID `json:"id"`
	Title string `json:"title"`
}

// HistoryMessage is one transcript entry of GET /conversation/by-id/{id}.
// Type is "user" or "assistant".
type HistoryMessage struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// ConversationHistory is the payload of GET /conversation/by-id/{id}.
type ConversationHistory struct {
	ID       FlexID           `json:"id"`
	Title    string           `json:"title"`
	Messages []HistoryMessage `json:"messages"`
}

// =============================================================================
// REQUEST PAYLOADS
// =============================================================================

// AskParams are the query parameters of POST /assistant/ask.
// The three category-ish fields are optional; empty strings are sent as
// absent parameters so the backend's defaults apply.
type AskParams struct {
	Prompt            string
	Locale            string
	Category          string
	Subcategory       string
	SubcategoryReport string
	ConversationID    string
}

// FeedbackRequest is the body of POST /conversation/by-id/{id}/add-feedback.
type FeedbackRequest struct {
	MessageIndex int    `json:"message_index"`
	Rate         string `json:"rate"`
	Text         string `json:"text"`
}

// FeedbackRates accepted by the backend.
const (
	RateGood = "good"
	RateBad  = "bad"
)
