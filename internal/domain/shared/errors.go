// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "place", "posting", "popularity"
	Op      string // Operation that failed, e.g., "Find", "Search"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Place domain errors
var (
	ErrPlaceNotFound        = NewDomainError("place", "Find", ErrNotFound, "place not found")
	ErrPlaceTagNotFound     = NewDomainError("place", "FindTag", ErrNotFound, "place tag not found")
	ErrPlaceCommentNotFound = NewDomainError("place", "FindComment", ErrNotFound, "place comment not found")
	ErrInvalidCoordinate    = NewDomainError("place", "Validate", ErrValueOutOfRange, "coordinate out of range")
	ErrInvalidSortMode      = NewDomainError("place", "Search", ErrInvalidInput, "unrecognized sort mode")
)

// Posting domain errors
var (
	ErrPostingNotFound        = NewDomainError("posting", "Find", ErrNotFound, "posting not found")
	ErrPostingTagNotFound     = NewDomainError("posting", "FindTag", ErrNotFound, "posting tag not found")
	ErrPostingCommentNotFound = NewDomainError("posting", "FindComment", ErrNotFound, "posting comment not found")
)

// Member errors
var (
	ErrNotOwner    = NewDomainError("member", "Authorize", ErrForbidden, "member does not own the resource")
	ErrNoViewer    = NewDomainError("member", "Authorize", ErrUnauthorized, "member identity required")
	ErrInvalidPage = NewDomainError("posting", "Validate", ErrValueOutOfRange, "invalid page")
)

// Popularity store errors
var (
	ErrPopularityUnavailable = NewDomainError("popularity", "Request", ErrServiceUnavailable, "popularity store unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsForbidden checks if the error denies access to an existing resource.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthorized checks if the error is caused by a missing identity.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
