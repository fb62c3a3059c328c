// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registration validates support ticket forms before submission.
//
// The backend accepts two form variants: individual and corporate.
// Corporate tickets additionally carry the company BIN and the signer IIN,
// both exactly 12 digits. Validation runs entirely client-side so a form
// never reaches the network with fields the backend would reject.
package registration

import (
	"errors"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/askdesk/askdesk-tui/internal/api"
)

// =============================================================================
// FORM
// =============================================================================

// Form is a registration ticket as the user fills it in.
type Form struct {
	Kind api.RegistrationKind `validate:"required,oneof=individual corporate"`

	LastName   string `validate:"required"`
	FirstName  string `validate:"required"`
	MiddleName string `validate:"-"`
	Phone      string `validate:"required,phone"`
	Email      string `validate:"required,email"`
	Region     string `validate:"required"`

	// BIN and IIN are required for corporate tickets only.
	BIN string `validate:"required_if=Kind corporate,omitempty,idnum"`
	IIN string `validate:"required_if=Kind corporate,omitempty,idnum"`

	Description string `validate:"-"`

	// ConversationID and FilePaths attach the ticket to the chat that
	// prompted it.
	ConversationID string   `validate:"-"`
	FilePaths      []string `validate:"-"`
}

// =============================================================================
// VALIDATION
// =============================================================================

var (
	// phonePattern matches the characters the backend form accepts:
	// digits, plus, dashes, spaces and parentheses.
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)
	// idPattern matches a Kazakhstani BIN or IIN: exactly 12 digits.
	idPattern = regexp.MustCompile(`^[0-9]{12}$`)
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// instance returns the validator singleton. Building a validator is
// expensive; one instance serves every form.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Registration only fails on malformed patterns, which are constants.
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("idnum", func(fl validator.FieldLevel) bool {
			return idPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// FieldError describes one invalid form field.
type FieldError struct {
	// Field is the Go field name, e.g. "Phone".
	Field string
	// Tag is the failed validation rule, e.g. "required" or "phone".
	Tag string
}

func (e FieldError) Error() string {
	return "field " + e.Field + " failed rule " + e.Tag
}

// ValidationErrors collects every invalid field of one form.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msg := e[0].Error()
	for _, fe := range e[1:] {
		msg += "; " + fe.Error()
	}
	return msg
}

// Fields returns the names of all invalid fields, in form order.
func (e ValidationErrors) Fields() []string {
	names := make([]string, len(e))
	for i, fe := range e {
		names[i] = fe.Field
	}
	return names
}

// Validate checks the form against the backend's field rules.
// Returns ValidationErrors listing every invalid field, or nil.
func (f *Form) Validate() error {
	err := instance().Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag()})
	}
	return out
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submission validates the form and converts it to the API payload.
func (f *Form) Submission() (api.RegistrationSubmission, error) {
	if err := f.Validate(); err != nil {
		return api.RegistrationSubmission{}, err
	}
	sub := api.RegistrationSubmission{
		Kind:           f.Kind,
		ConversationID: f.ConversationID,
		LastName:       f.LastName,
		FirstName:      f.FirstName,
		MiddleName:     f.MiddleName,
		Phone:          f.Phone,
		Email:          f.Email,
		Region:         f.Region,
		Description:    f.Description,
		FilePaths:      f.FilePaths,
	}
	if f.Kind == api.RegistrationCorporate {
		sub.BIN = f.BIN
		sub.IIN = f.IIN
	}
	return sub, nil
}
