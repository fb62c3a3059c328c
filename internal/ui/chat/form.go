// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view of the askdesk TUI.
//
// This file implements the registration form overlay shown after a bad
// rating. The overlay owns its own focus cycle; the chat model routes all
// key input here while the form is open.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/askdesk/askdesk-tui/internal/api"
	"github.com/askdesk/askdesk-tui/internal/registration"
	"github.com/askdesk/askdesk-tui/internal/ui/styles"
)

// =============================================================================
// FORM FIELDS
// =============================================================================

// Field indexes into FormModel.inputs. Order is the visual order.
const (
	fieldLastName = iota
	fieldFirstName
	fieldMiddleName
	fieldPhone
	fieldEmail
	fieldRegion
	fieldBIN
	fieldIIN
	fieldDescription
	fieldCount
)

// fieldLabels maps field indexes to display labels. The backend form is
// Russian-only, so labels are not localized.
var fieldLabels = [fieldCount]string{
	"Фамилия",
	"Имя",
	"Отчество",
	"Телефон",
	"Email",
	"Регион",
	"БИН",
	"ИИН",
	"Описание",
}

// formFieldName maps validator field names back to input indexes so
// validation errors can highlight the offending field.
var formFieldName = map[string]int{
	"LastName":  fieldLastName,
	"FirstName": fieldFirstName,
	"Phone":     fieldPhone,
	"Email":     fieldEmail,
	"Region":    fieldRegion,
	"BIN":       fieldBIN,
	"IIN":       fieldIIN,
}

// =============================================================================
// FORM MODEL
// =============================================================================

// FormModel is the registration form overlay.
type FormModel struct {
	theme *styles.Theme

	kind   api.RegistrationKind
	inputs [fieldCount]textinput.Model
	focus  int

	// regions cycles with left/right on the region field; free text is
	// still allowed for regions missing from the list.
	regions   []string
	regionIdx int

	// invalid holds field indexes the last validation rejected.
	invalid map[int]bool

	// Ticket attachment context.
	conversationID string
	filePaths      []string

	submitting bool
}

// NewForm creates a registration form attached to the given conversation.
func NewForm(theme *styles.Theme, conversationID string, filePaths, regions []string) *FormModel {
	f := &FormModel{
		theme:          theme,
		kind:           api.RegistrationIndividual,
		regions:        regions,
		regionIdx:      -1,
		invalid:        make(map[int]bool),
		conversationID: conversationID,
		filePaths:      filePaths,
	}
	for i := 0; i < fieldCount; i++ {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		if i == fieldPhone {
			ti.Placeholder = "+7 (700) 000-00-00"
		}
		f.inputs[i] = ti
	}
	f.inputs[fieldLastName].Focus()
	return f
}

// SetRegions installs the region list once it arrives.
func (f *FormModel) SetRegions(regions []string) {
	f.regions = regions
}

// corporate reports whether the BIN and IIN rows are active.
func (f *FormModel) corporate() bool {
	return f.kind == api.RegistrationCorporate
}

// =============================================================================
// NAVIGATION
// =============================================================================

// visible reports whether a field participates in the focus cycle.
func (f *FormModel) visible(idx int) bool {
	if idx == fieldBIN || idx == fieldIIN {
		return f.corporate()
	}
	return true
}

// moveFocus advances focus by delta, skipping hidden fields.
func (f *FormModel) moveFocus(delta int) {
	f.inputs[f.focus].Blur()
	for {
		f.focus = (f.focus + delta + fieldCount) % fieldCount
		if f.visible(f.focus) {
			break
		}
	}
	f.inputs[f.focus].Focus()
}

// toggleKind flips between individual and corporate tickets.
func (f *FormModel) toggleKind() {
	if f.corporate() {
		f.kind = api.RegistrationIndividual
		// Hidden fields must not keep focus.
		if f.focus == fieldBIN || f.focus == fieldIIN {
			f.moveFocus(1)
		}
	} else {
		f.kind = api.RegistrationCorporate
	}
}

// cycleRegion steps through the fetched region list.
func (f *FormModel) cycleRegion(delta int) {
	if len(f.regions) == 0 {
		return
	}
	f.regionIdx = (f.regionIdx + delta + len(f.regions)) % len(f.regions)
	f.inputs[fieldRegion].SetValue(f.regions[f.regionIdx])
	f.inputs[fieldRegion].CursorEnd()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes one key message into the form. It never produces
// commands; submission is driven by the chat model.
func (f *FormModel) Update(msg tea.Msg) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return
	}

	switch key.String() {
	case "tab", "down":
		f.moveFocus(1)
		return
	case "shift+tab", "up":
		f.moveFocus(-1)
		return
	case "ctrl+k":
		f.toggleKind()
		return
	case "left", "right":
		if f.focus == fieldRegion {
			delta := 1
			if key.String() == "left" {
				delta = -1
			}
			f.cycleRegion(delta)
			return
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	_ = cmd // textinput blink commands are driven by the chat model
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Form assembles the registration form from the current field values.
func (f *FormModel) Form() registration.Form {
	form := registration.Form{
		Kind:           f.kind,
		LastName:       strings.TrimSpace(f.inputs[fieldLastName].Value()),
		FirstName:      strings.TrimSpace(f.inputs[fieldFirstName].Value()),
		MiddleName:     strings.TrimSpace(f.inputs[fieldMiddleName].Value()),
		Phone:          strings.TrimSpace(f.inputs[fieldPhone].Value()),
		Email:          strings.TrimSpace(f.inputs[fieldEmail].Value()),
		Region:         strings.TrimSpace(f.inputs[fieldRegion].Value()),
		Description:    strings.TrimSpace(f.inputs[fieldDescription].Value()),
		ConversationID: f.conversationID,
		FilePaths:      f.filePaths,
	}
	if f.corporate() {
		form.BIN = strings.TrimSpace(f.inputs[fieldBIN].Value())
		form.IIN = strings.TrimSpace(f.inputs[fieldIIN].Value())
	}
	return form
}

// Validate checks the form and records invalid fields for rendering.
// Returns the submission payload when the form is valid.
func (f *FormModel) Validate() (api.RegistrationSubmission, bool) {
	f.invalid = make(map[int]bool)
	form := f.Form()
	sub, err := form.Submission()
	if err == nil {
		return sub, true
	}

	var verrs registration.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok {
		for _, name := range verrs.Fields() {
			if idx, known := formFieldName[name]; known {
				f.invalid[idx] = true
			}
		}
	}
	return api.RegistrationSubmission{}, false
}

// asValidationErrors unwraps err into ValidationErrors.
func asValidationErrors(err error, out *registration.ValidationErrors) bool {
	verrs, ok := err.(registration.ValidationErrors)
	if !ok {
		return false
	}
	*out = verrs
	return true
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the form overlay at the given width.
func (f *FormModel) View(width int) string {
	t := f.theme

	kindLabel := "Физическое лицо"
	if f.corporate() {
		kindLabel = "Юридическое лицо"
	}

	var rows []string
	rows = append(rows, t.FormTitle.Render("Заявка в службу поддержки"))
	rows = append(rows, t.FormLabel.Render("Тип")+t.FormField.Render(kindLabel+"  (C-k)"))

	for i := 0; i < fieldCount; i++ {
		if !f.visible(i) {
			continue
		}
		label := t.FormLabel.Render(fieldLabels[i])
		field := t.FormField
		if i == f.focus {
			field = t.FormFieldFocused
		}
		if f.invalid[i] {
			field = t.FormError
		}
		rows = append(rows, label+field.Render(f.inputs[i].View()))
	}

	hint := t.OptionHint.Render("Tab: поле  C-k: тип  Enter: отправить  Esc: отмена")
	rows = append(rows, hint)

	box := t.FormBox.Width(minInt(width-4, 72))
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
