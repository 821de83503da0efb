// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrInvalidState indicates an operation was attempted from a status that does not allow it.
var ErrInvalidState = errors.New("invalid state")

// ErrValidation indicates a caller-supplied value failed validation.
// Wrap it with fmt.Errorf("%w: detail", ErrValidation) so the HTTP layer can strip the prefix.
var ErrValidation = errors.New("validation error")

// ErrUnavailable indicates a required external collaborator is not configured.
var ErrUnavailable = errors.New("unavailable")
