package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// Business-rule failures. Surfaced to the caller as-is, never compensated.
var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrUnbalancedJournal   = errors.New("journal debits and credits are not equal")
	ErrPlanNotActive       = errors.New("installment plan is not active")
	ErrCreditLimitExceeded = errors.New("customer credit limit exceeded")
	ErrAccountInactive     = errors.New("account is inactive")
)

// ErrTransientConflict wraps deadlock/serialization failures after retries
// are exhausted. Callers may retry the whole operation.
var ErrTransientConflict = errors.New("transient conflict, retry the operation")

// ValidationError rejects an input locally, naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvariantViolationError marks a state that should be unreachable
// (unbalanced trial balance, on-hand below reserved, movement drift).
// The operation aborts; the condition is logged for operator inspection.
// The core never attempts to self-heal these.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated (%s): %s", e.Invariant, e.Detail)
}

func NewInvariantViolation(invariant, detail string) error {
	return &InvariantViolationError{Invariant: invariant, Detail: detail}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInvariantViolation(err error) bool {
	var iv *InvariantViolationError
	return errors.As(err, &iv)
}
