// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit-code mapping for the CLI surface.
//
// Handlers return errors; main decides how to display them and what
// exit code to use. Scripts can branch on the code without parsing
// stderr.
//
// ERROR HANDLING: Errors must not be silently ignored
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/askdesk/askdesk-tui/internal/api"
)

// Exit codes, one per error category.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 6
	ExitTimeoutError  = 7
)

// ValidationError reports rejected user input (flags, arguments, config
// values) with an optional example of an accepted value.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += "\nExample: " + e.Example
	}
	return msg
}

// PermissionError reports a denied operation, such as an admin command
// run with a non-admin account.
type PermissionError struct {
	Action     string
	UserID     string
	Permission string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s requires permission '%s' (user: %s)",
		e.Action, e.Permission, e.UserID)
}

// NotFoundError reports a missing resource, such as an unknown
// conversation id or a workbook path that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewValidationError builds a validation error without an example.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample builds a validation error that shows the
// user an accepted value.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// NewPermissionError builds a permission error.
func NewPermissionError(action, userID, permission string) error {
	return &PermissionError{Action: action, UserID: userID, Permission: permission}
}

// NewNotFoundError builds a not-found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ErrMissingArgument reports a required argument that was not given,
// with the usage line as the example.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// ErrNotFound is shorthand for NewNotFoundError.
func ErrNotFound(resource, id string) error {
	return NewNotFoundError(resource, id)
}

// WrapError adds context to an error as it bubbles up.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// GetExitCode maps an error to its exit code. Typed errors decide first;
// backend status errors map by HTTP status; everything else is general.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}
	var permissionErr *PermissionError
	if errors.As(err, &permissionErr) {
		return ExitAuthError
	}
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Status == http.StatusUnauthorized, statusErr.Status == http.StatusForbidden:
			return ExitAuthError
		case statusErr.Status == http.StatusNotFound:
			return ExitNotFoundError
		case statusErr.Status >= 500:
			return ExitNetworkError
		}
		return ExitGeneralError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	return ExitGeneralError
}

// HandleErrorAndExit displays an error and exits with its code. Used by
// main for fatal handler errors; does nothing for a nil error.
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	displayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}

func displayError(err error, jsonMode bool) {
	if jsonMode {
		displayErrorJSON(err)
		return
	}
	fmt.Println()
	fmt.Printf("%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	fmt.Println()
}

// displayErrorJSON mirrors the success envelope: success=false plus the
// fields of the typed error, when there is one.
func displayErrorJSON(err error) {
	output := map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	}

	switch e := err.(type) {
	case *ValidationError:
		output["error_type"] = "validation_error"
		output["field"] = e.Field
		output["reason"] = e.Reason
	case *PermissionError:
		output["error_type"] = "permission_error"
		output["action"] = e.Action
		output["required_permission"] = e.Permission
	case *NotFoundError:
		output["error_type"] = "not_found_error"
		output["resource"] = e.Resource
		output["id"] = e.ID
	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}
