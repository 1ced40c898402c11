package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so callers can decide how to react
// (reject the request, retry with fresh state, or page someone).
type ErrorKind string

const (
	KindValidation ErrorKind = "VALIDATION"
	KindDependency ErrorKind = "DEPENDENCY"
	KindInvariant  ErrorKind = "INVARIANT"
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindConflict   ErrorKind = "CONFLICT"
	KindState      ErrorKind = "STATE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
	cause   error
	// rejected marks a collaborator's answer, as opposed to its failure
	rejected bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code, so a dynamically built error with the
// same code satisfies errors.Is against the package-level sentinel.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewKindError creates a domain error of the given kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// NewDependencyError wraps a failure returned by an external collaborator
// (payment provider, inventory service, persistence).
func NewDependencyError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindDependency,
		cause:   cause,
	}
}

// NewRejectionError is a dependency error for a collaborator that worked and
// said no (out of stock, payment declined). Retrying the same request will
// not change the answer, and it says nothing about the collaborator's health.
func NewRejectionError(code, message string) *DomainError {
	return &DomainError{
		Code:     code,
		Message:  message,
		Kind:     KindDependency,
		rejected: true,
	}
}

// NewInvariantError reports a broken internal invariant. These are defects,
// never user input problems.
func NewInvariantError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindInvariant,
	}
}

// KindOf returns the kind of the first DomainError in err's chain.
// Unclassified errors are reported as dependency failures.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindDependency
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == KindValidation
}

// IsDependencyFailure reports whether err came from an external collaborator
func IsDependencyFailure(err error) bool {
	return err != nil && KindOf(err) == KindDependency
}

// IsRejection reports whether err is a collaborator's refusal rather than an outage
func IsRejection(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.rejected
}

// IsInvariantViolation reports whether err is a defect
func IsInvariantViolation(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == KindInvariant
}

// Common domain errors
var (
	ErrNotFound            = NewKindError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewKindError(KindConflict, "ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewKindError(KindConflict, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewKindError(KindState, "INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewRejectionError("INSUFFICIENT_STOCK", "Insufficient stock available")
)
