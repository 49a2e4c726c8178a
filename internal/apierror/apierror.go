// Package apierror provides the typed error taxonomy for the core subsystems
// and the standardized response envelopes for the API. All errors returned to
// clients go through this package to ensure consistency and to prevent leaking
// internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ─── Typed domain errors ─────────────────────────────────────────────────────
// Deterministic errors (NotFound, Validation, InvalidStateTransition) are
// surfaced verbatim with no retry. Conflict is retried once internally with a
// fresh sequence before it reaches a caller. ConcurrencyConflict is safe for
// the caller to retry once.

// NotFoundError reports an absent item, requisition, or line item.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports missing or out-of-range fields. Fields is optional:
// bind-time validation fills it per field, domain checks usually set Detail only.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string { return e.Detail }

func Invalid(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// StateTransitionError reports a requisition guard violation. It carries both
// the current status and the attempted transition so callers can report the
// exact illegal move; no state is mutated when it is returned.
type StateTransitionError struct {
	Current   string
	Attempted string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a requisition in status %q", e.Attempted, e.Current)
}

func InvalidTransition(current, attempted string) *StateTransitionError {
	return &StateTransitionError{Current: current, Attempted: attempted}
}

// ConflictError reports a duplicate generated identifier that survived the
// internal retry with a fresh sequence.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return e.Detail }

func Conflict(detail string) *ConflictError { return &ConflictError{Detail: detail} }

// UnauthorizedError reports failed authentication (bad credentials, expired
// or malformed token).
type UnauthorizedError struct {
	Detail string
}

func (e *UnauthorizedError) Error() string { return e.Detail }

func Unauthorized(detail string) *UnauthorizedError { return &UnauthorizedError{Detail: detail} }

// ConcurrencyError reports a lost race on a quantity or status mutation
// (lock/version check failed after the guard passed).
type ConcurrencyError struct {
	Detail string
}

func (e *ConcurrencyError) Error() string { return e.Detail }

func Concurrency(detail string) *ConcurrencyError { return &ConcurrencyError{Detail: detail} }

// ─── Classification helpers ──────────────────────────────────────────────────

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsInvalidTransition(err error) bool {
	var e *StateTransitionError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsUnauthorized(err error) bool {
	var e *UnauthorizedError
	return errors.As(err, &e)
}

func IsConcurrency(err error) bool {
	var e *ConcurrencyError
	return errors.As(err, &e)
}
