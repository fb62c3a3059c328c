// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/ui/styles"
)

func newTestForm() *FormModel {
	return NewForm(styles.NewTheme(), "42", nil, []string{"Алматы", "Астана"})
}

func fillValid(f *FormModel) {
	f.inputs[fieldLastName].SetValue("Иванов")
	f.inputs[fieldFirstName].SetValue("Иван")
	f.inputs[fieldPhone].SetValue("+7 (700) 123-45-67")
	f.inputs[fieldEmail].SetValue("ivanov@example.kz")
	f.inputs[fieldRegion].SetValue("Алматы")
}

func TestFormDefaultsToIndividual(t *testing.T) {
	f := newTestForm()
	if f.corporate() {
		t.Error("new form should default to an individual ticket")
	}
	if f.visible(fieldBIN) || f.visible(fieldIIN) {
		t.Error("BIN and IIN rows must be hidden for individual tickets")
	}
}

func TestFormToggleKindShowsCorporateFields(t *testing.T) {
	f := newTestForm()
	f.toggleKind()

	if !f.corporate() {
		t.Fatal("toggle should switch to corporate")
	}
	if !f.visible(fieldBIN) || !f.visible(fieldIIN) {
		t.Error("BIN and IIN rows must be visible for corporate tickets")
	}

	// Toggling back while a corporate field is focused moves focus.
	for f.focus != fieldBIN {
		f.moveFocus(1)
	}
	f.toggleKind()
	if f.focus == fieldBIN || f.focus == fieldIIN {
		t.Error("focus must leave hidden fields on toggle")
	}
}

func TestFormFocusCycleSkipsHiddenFields(t *testing.T) {
	f := newTestForm()

	seen := map[int]bool{}
	for i := 0; i < fieldCount*2; i++ {
		seen[f.focus] = true
		f.moveFocus(1)
	}
	if seen[fieldBIN] || seen[fieldIIN] {
		t.Error("hidden corporate fields entered the focus cycle")
	}
	for _, idx := range []int{fieldLastName, fieldEmail, fieldDescription} {
		if !seen[idx] {
			t.Errorf("field %d missing from focus cycle", idx)
		}
	}
}

func TestFormRegionCycling(t *testing.T) {
	f := newTestForm()
	for f.focus != fieldRegion {
		f.moveFocus(1)
	}

	f.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := f.inputs[fieldRegion].Value(); got != "Алматы" {
		t.Errorf("region after first cycle = %q, want Алматы", got)
	}
	f.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := f.inputs[fieldRegion].Value(); got != "Астана" {
		t.Errorf("region after second cycle = %q, want Астана", got)
	}
	f.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := f.inputs[fieldRegion].Value(); got != "Алматы" {
		t.Errorf("region after cycling back = %q, want Алматы", got)
	}
}

func TestFormValidateRejectsEmptyForm(t *testing.T) {
	f := newTestForm()

	_, ok := f.Validate()
	if ok {
		t.Fatal("empty form must not validate")
	}
	for _, idx := range []int{fieldLastName, fieldFirstName, fieldPhone, fieldEmail, fieldRegion} {
		if !f.invalid[idx] {
			t.Errorf("field %d should be marked invalid", idx)
		}
	}
}

func TestFormValidateIndividual(t *testing.T) {
	f := newTestForm()
	fillValid(f)

	sub, ok := f.Validate()
	if !ok {
		t.Fatalf("valid individual form rejected: %v", f.invalid)
	}
	if sub.Kind != api.RegistrationIndividual {
		t.Errorf("kind = %q", sub.Kind)
	}
	if sub.ConversationID != "42" {
		t.Errorf("conversation id = %q, want 42", sub.ConversationID)
	}
}

func TestFormValidateCorporateRequiresBIN(t *testing.T) {
	f := newTestForm()
	fillValid(f)
	f.toggleKind()

	if _, ok := f.Validate(); ok {
		t.Fatal("corporate form without BIN and IIN must not validate")
	}
	if !f.invalid[fieldBIN] || !f.invalid[fieldIIN] {
		t.Error("BIN and IIN should be marked invalid")
	}

	f.inputs[fieldBIN].SetValue("123456789012")
	f.inputs[fieldIIN].SetValue("987654321098")
	if _, ok := f.Validate(); !ok {
		t.Fatalf("complete corporate form rejected: %v", f.invalid)
	}
}

func TestFormViewMarksInvalidFields(t *testing.T) {
	f := newTestForm()
	_, _ = f.Validate()

	out := f.View(100)
	if !strings.Contains(out, "Фамилия") {
		t.Error("view should render field labels")
	}
	if !strings.Contains(out, "Заявка") {
		t.Error("view should render the form title")
	}
}

func TestFormTypingEditsFocusedField(t *testing.T) {
	f := newTestForm()

	f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Иванов")})
	if got := f.inputs[fieldLastName].Value(); got != "Иванов" {
		t.Errorf("last name = %q after typing", got)
	}
}
