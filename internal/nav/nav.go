// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav tracks the category navigation state: which part of the
// catalog tree the user is browsing and which option set is visible.
//
// The catalog is fetched once and cached. Descent goes category ->
// subcategory -> report -> FAQ; levels without content are skipped.
// Selecting a FAQ entry produces a prompt to post, together with the
// category context the backend expects as query parameters.
package nav

import (
	"sync"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/i18n"
	"github.com/askdesk/askdesk-tui/internal/model"
)

// maxRootOptions caps how many categories are offered up front.
const maxRootOptions = 4

// =============================================================================
// SELECTION RESULT
// =============================================================================

// Selection is the outcome of choosing one option.
type Selection struct {
	// Post is true when the choice fires a prompt instead of descending.
	Post bool
	// Prompt is the canonical prompt text to send (Post only).
	Prompt string
	// Options is the next visible option set (descent only). Empty means
	// the user reached free-text input.
	Options []model.Option
}

// =============================================================================
// NAVIGATOR
// =============================================================================

// Navigator holds the catalog and the current position in it.
// Safe for concurrent use; the UI reads while the fetch goroutine writes.
type Navigator struct {
	mu      sync.Mutex
	catalog *api.CategoriesResponse

	category    *api.Category
	subcategory *api.Subcategory
	report      string
}

// New returns an empty Navigator. Options are unavailable until
// SetCatalog is called with the fetched tree.
func New() *Navigator {
	return &Navigator{}
}

// SetCatalog installs the fetched category tree. Later calls replace the
// cached tree but keep the current position only if still valid.
func (n *Navigator) SetCatalog(catalog *api.CategoriesResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.catalog = catalog
	n.category = nil
	n.subcategory = nil
	n.report = ""
}

// Loaded reports whether the catalog has been fetched.
func (n *Navigator) Loaded() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.catalog != nil
}

// Reset returns to the catalog root. Called when a conversation starts.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.category = nil
	n.subcategory = nil
	n.report = ""
}

// =============================================================================
// OPTION SETS
// =============================================================================

// Options returns the currently visible option set, labeled for the
// locale. Relabeling on locale change needs no refetch: labels are derived
// from the cached canonical names on every call.
func (n *Navigator) Options(loc i18n.Locale) []model.Option {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.optionsLocked(loc)
}

func (n *Navigator) optionsLocked(loc i18n.Locale) []model.Option {
	if n.catalog == nil {
		return nil
	}
	table := n.catalog.TranslationsKZ

	switch {
	case n.category == nil:
		cats := n.catalog.Categories
		if len(cats) > maxRootOptions {
			cats = cats[:maxRootOptions]
		}
		opts := make([]model.Option, 0, len(cats))
		for _, c := range cats {
			opts = append(opts, model.Option{
				Value: c.Name,
				Label: i18n.Translate(loc, c.Name, table),
			})
		}
		return opts

	case n.subcategory == nil && len(n.category.Subcategories) > 0:
		opts := make([]model.Option, 0, len(n.category.Subcategories))
		for _, sc := range n.category.Subcategories {
			opts = append(opts, model.Option{
				Value: sc.Name,
				Label: i18n.Translate(loc, sc.Name, table),
			})
		}
		return opts

	case n.subcategory != nil && n.report == "" && len(n.subcategory.Reports) > 0:
		opts := make([]model.Option, 0, len(n.subcategory.Reports))
		for _, r := range n.subcategory.Reports {
			opts = append(opts, model.Option{
				Value: r,
				Label: i18n.Translate(loc, r, table),
			})
		}
		return opts

	default:
		return n.faqOptionsLocked(loc)
	}
}

// faqOptionsLocked returns the FAQ entries of the deepest selected level.
func (n *Navigator) faqOptionsLocked(loc i18n.Locale) []model.Option {
	var faq []api.FAQ
	switch {
	case n.subcategory != nil && len(n.subcategory.FAQ) > 0:
		faq = n.subcategory.FAQ
	case n.category != nil:
		faq = n.category.FAQ
	}
	opts := make([]model.Option, 0, len(faq))
	for _, f := range faq {
		opts = append(opts, model.Option{
			Value: f.Question,
			Label: i18n.Translate(loc, f.Question, n.catalog.TranslationsKZ),
			Leaf:  true,
		})
	}
	return opts
}

// =============================================================================
// SELECTION
// =============================================================================

// Select applies the choice identified by its canonical value and returns
// what should happen next. Unknown values return an empty descent, which
// callers treat as a no-op.
func (n *Navigator) Select(value string, loc i18n.Locale) Selection {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.catalog == nil {
		return Selection{}
	}

	switch {
	case n.category == nil:
		for i := range n.catalog.Categories {
			if n.catalog.Categories[i].Name == value {
				n.category = &n.catalog.Categories[i]
				return Selection{Options: n.optionsLocked(loc)}
			}
		}

	case n.subcategory == nil && len(n.category.Subcategories) > 0:
		for i := range n.category.Subcategories {
			if n.category.Subcategories[i].Name == value {
				n.subcategory = &n.category.Subcategories[i]
				return Selection{Options: n.optionsLocked(loc)}
			}
		}

	case n.subcategory != nil && n.report == "" && len(n.subcategory.Reports) > 0:
		for _, r := range n.subcategory.Reports {
			if r == value {
				n.report = r
				// After a report, only FAQ (or free text) remains.
				return Selection{Options: n.faqOptionsLocked(loc)}
			}
		}

	default:
	}

	// FAQ leaf: fire the question as a prompt.
	for _, f := range n.currentFAQLocked() {
		if f.Question == value {
			return Selection{Post: true, Prompt: f.Question}
		}
	}
	return Selection{}
}

func (n *Navigator) currentFAQLocked() []api.FAQ {
	switch {
	case n.subcategory != nil && len(n.subcategory.FAQ) > 0:
		return n.subcategory.FAQ
	case n.category != nil:
		return n.category.FAQ
	default:
		return nil
	}
}

// Context returns the category parameters for the next ask request.
func (n *Navigator) Context() (category, subcategory, report string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.category != nil {
		category = n.category.Name
	}
	if n.subcategory != nil {
		subcategory = n.subcategory.Name
	}
	return category, subcategory, n.report
}
