// Package shared contains common domain types, errors, events, and value objects
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
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidID       = errors.New("invalid ID")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Balance errors
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progression", "achievement", "reward"
	Op      string // Operation that failed, e.g., "CreditXP", "Approve"
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

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Register", ErrAlreadyExists, "email already registered")
	ErrInvalidLearnerRole   = NewDomainError("learner", "Validate", ErrInvalidArgument, "invalid learner role")
)

// Progression domain errors
var (
	ErrModuleNotFound      = NewDomainError("progression", "FindModule", ErrNotFound, "module not found")
	ErrTrailNotFound       = NewDomainError("progression", "FindTrail", ErrNotFound, "trail not found")
	ErrInvalidModuleStatus = NewDomainError("progression", "SetModuleStatus", ErrInvalidArgument, "invalid module status")
	ErrStatusRegression    = NewDomainError("progression", "SetModuleStatus", ErrStateTransition, "completed module cannot regress")
	ErrNonPositiveXPAmount = NewDomainError("progression", "Validate", ErrInvalidArgument, "XP amount must be positive")
	ErrBalanceTooLow       = NewDomainError("progression", "DebitXP", ErrInsufficientBalance, "XP balance is lower than the requested debit")
	ErrProgressNotFound    = NewDomainError("progression", "FindProgress", ErrNotFound, "progress record not found")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found in catalog")
	ErrAlreadyGranted      = NewDomainError("achievement", "Grant", ErrAlreadyExists, "achievement already granted")
)

// Reward domain errors
var (
	ErrRequestNotFound      = NewDomainError("reward", "Find", ErrNotFound, "reward request not found")
	ErrUnknownRewardType    = NewDomainError("reward", "Validate", ErrInvalidArgument, "unknown reward type")
	ErrRequestAlreadyClosed = NewDomainError("reward", "Resolve", ErrInvalidState, "reward request already resolved")
	ErrCostExceedsBalance   = NewDomainError("reward", "CheckBalance", ErrInsufficientBalance, "reward cost exceeds current XP balance")
)

// Submission domain errors
var (
	ErrSubmissionNotFound = NewDomainError("submission", "Find", ErrNotFound, "submission not found")
	ErrSubmissionClosed   = NewDomainError("submission", "Review", ErrInvalidState, "submission already reviewed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidArgument checks if the error is a validation error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsInvalidState checks if the error is an invalid state or transition error.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrStateTransition)
}

// IsInsufficientBalance checks if the error is a balance sufficiency error.
func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsStoreUnavailable checks if the error is a transient store failure.
// These may be retried once by the caller, never by the core itself.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
