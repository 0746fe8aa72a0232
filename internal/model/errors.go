// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// Service error taxonomy. Validation failures never reach storage;
// DuplicateSlug is a user-correctable conflict that is not retried;
// NotFound means the target record is absent. Any other persistence failure
// is wrapped and surfaced as an opaque internal error.
var (
	// ErrNotFound indicates the target record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSlug indicates another post already owns the derived slug.
	ErrDuplicateSlug = errors.New("slug already in use")
)

// ValidationError reports a client-correctable input problem. It carries the
// offending field so the caller can fix the request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError unwraps err into a ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
