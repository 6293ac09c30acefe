// Package apperr defines the error taxonomy shared by the domain, the stores and the API.
//
// Every structured error unwraps to one sentinel so callers can branch with errors.Is
// and still extract details with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("entity not found")
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthenticated   = errors.New("unauthenticated")
)

// ValidationError is returned when a write is rejected before anything is stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is a shorthand for &ValidationError{...}.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// EntityNotFoundError names the entity kind and id that did not resolve.
type EntityNotFoundError struct {
	Entity string
	ID     int64
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *EntityNotFoundError) Unwrap() error { return ErrNotFound }

// NotFound is a shorthand for &EntityNotFoundError{...}.
func NotFound(entity string, id int64) *EntityNotFoundError {
	return &EntityNotFoundError{Entity: entity, ID: id}
}

// IllegalStateTransitionError is returned when an order cannot move from its
// current state to the requested one.
type IllegalStateTransitionError struct {
	OrderID int64
	From    string
	To      string
}

func (e *IllegalStateTransitionError) Error() string {
	return fmt.Sprintf("order %d: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *IllegalStateTransitionError) Unwrap() error { return ErrIllegalTransition }

// AuthorizationError is returned when the principal lacks a role or does not own the resource.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// Forbidden is a shorthand for &AuthorizationError{...}.
func Forbidden(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is (or wraps) a not-found failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
