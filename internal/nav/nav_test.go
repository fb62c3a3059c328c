// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"testing"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/i18n"
)

// =============================================================================
// TEST CATALOG
// =============================================================================

func testCatalog() *api.CategoriesResponse {
	return &api.CategoriesResponse{
		Categories: []api.Category{
			{
				Name: "Налоги",
				Subcategories: []api.Subcategory{
					{
						Name:    "ИПН",
						Reports: []string{"Форма 200"},
						FAQ: []api.FAQ{
							{Question: "Как сдать форму 200?"},
						},
					},
				},
			},
			{
				Name: "Регистрация",
				FAQ: []api.FAQ{
					{Question: "Как открыть ИП?"},
				},
			},
			{Name: "Третья"},
			{Name: "Четвертая"},
			{Name: "Пятая"},
		},
		TranslationsKZ: map[string]string{
			"Налоги": "Салықтар",
		},
	}
}

func testNavigator() *Navigator {
	n := New()
	n.SetCatalog(testCatalog())
	return n
}

// =============================================================================
// OPTION SET TESTS
// =============================================================================

func TestNavigator_RootOptionsCapped(t *testing.T) {
	n := testNavigator()

	opts := n.Options(i18n.LocaleRU)
	if len(opts) != maxRootOptions {
		t.Fatalf("root options = %d, want %d", len(opts), maxRootOptions)
	}

	if opts[0].Value != "Налоги" || opts[0].Label != "Налоги" {
		t.Errorf("opts[0] = %+v", opts[0])
	}
}

func TestNavigator_KazakhLabels(t *testing.T) {
	n := testNavigator()

	opts := n.Options(i18n.LocaleKZ)

	if opts[0].Label != "Салықтар" {
		t.Errorf("translated label = %q, want Салықтар", opts[0].Label)
	}

	// Value stays canonical regardless of locale.
	if opts[0].Value != "Налоги" {
		t.Errorf("value = %q, want canonical Налоги", opts[0].Value)
	}

	// Untranslated names fall back to the canonical form.
	if opts[1].Label != "Регистрация" {
		t.Errorf("fallback label = %q", opts[1].Label)
	}
}

func TestNavigator_NotLoaded(t *testing.T) {
	n := New()

	if n.Loaded() {
		t.Error("empty navigator should not report loaded")
	}

	if opts := n.Options(i18n.LocaleRU); opts != nil {
		t.Errorf("options before catalog = %v", opts)
	}

	if sel := n.Select("Налоги", i18n.LocaleRU); sel.Post || len(sel.Options) != 0 {
		t.Errorf("select before catalog = %+v", sel)
	}
}

// =============================================================================
// DESCENT TESTS
// =============================================================================

func TestNavigator_DescentToFAQ(t *testing.T) {
	n := testNavigator()

	// Category with subcategories descends to them.
	sel := n.Select("Налоги", i18n.LocaleRU)
	if sel.Post {
		t.Fatal("category selection should descend, not post")
	}
	if len(sel.Options) != 1 || sel.Options[0].Value != "ИПН" {
		t.Fatalf("subcategory options = %+v", sel.Options)
	}

	// Subcategory descends to its reports.
	sel = n.Select("ИПН", i18n.LocaleRU)
	if len(sel.Options) != 1 || sel.Options[0].Value != "Форма 200" {
		t.Fatalf("report options = %+v", sel.Options)
	}

	// Report selection surfaces the FAQ.
	sel = n.Select("Форма 200", i18n.LocaleRU)
	if len(sel.Options) != 1 || !sel.Options[0].Leaf {
		t.Fatalf("faq options = %+v", sel.Options)
	}

	// FAQ leaf posts the question with full context.
	sel = n.Select("Как сдать форму 200?", i18n.LocaleRU)
	if !sel.Post || sel.Prompt != "Как сдать форму 200?" {
		t.Fatalf("faq selection = %+v", sel)
	}

	cat, sub, report := n.Context()
	if cat != "Налоги" || sub != "ИПН" || report != "Форма 200" {
		t.Errorf("context = %q/%q/%q", cat, sub, report)
	}
}

func TestNavigator_CategoryWithoutSubcategories(t *testing.T) {
	n := testNavigator()

	// Descends straight to FAQ when no subcategories exist.
	sel := n.Select("Регистрация", i18n.LocaleRU)
	if len(sel.Options) != 1 || sel.Options[0].Value != "Как открыть ИП?" {
		t.Fatalf("options = %+v", sel.Options)
	}

	sel = n.Select("Как открыть ИП?", i18n.LocaleRU)
	if !sel.Post {
		t.Fatal("faq selection should post")
	}

	cat, sub, report := n.Context()
	if cat != "Регистрация" || sub != "" || report != "" {
		t.Errorf("context = %q/%q/%q", cat, sub, report)
	}
}

func TestNavigator_UnknownSelection(t *testing.T) {
	n := testNavigator()

	sel := n.Select("нет такой", i18n.LocaleRU)
	if sel.Post || len(sel.Options) != 0 {
		t.Errorf("unknown selection = %+v", sel)
	}

	// Position unchanged.
	if cat, _, _ := n.Context(); cat != "" {
		t.Errorf("category = %q after no-op", cat)
	}
}

func TestNavigator_Reset(t *testing.T) {
	n := testNavigator()
	n.Select("Налоги", i18n.LocaleRU)

	n.Reset()

	if cat, _, _ := n.Context(); cat != "" {
		t.Errorf("category = %q after reset", cat)
	}

	if opts := n.Options(i18n.LocaleRU); len(opts) != maxRootOptions {
		t.Errorf("options after reset = %d", len(opts))
	}
}

func TestNavigator_RelabelWithoutRefetch(t *testing.T) {
	n := testNavigator()

	ru := n.Options(i18n.LocaleRU)
	kz := n.Options(i18n.LocaleKZ)

	if ru[0].Label == kz[0].Label {
		t.Error("labels should differ between locales")
	}

	if ru[0].Value != kz[0].Value {
		t.Error("canonical values must not depend on locale")
	}
}
