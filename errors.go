package pcetoken

import (
	"errors"
	"fmt"

	"github.com/xraph/pcetoken/basetoken"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
)

// Sentinel errors. Domain packages own their errors; they are re-exported
// here so callers only need this package.
var (
	// General errors
	ErrNotFound      = registry.ErrNotFound
	ErrAlreadyExists = registry.ErrAlreadyExists
	ErrUnauthorized  = settings.ErrUnauthorized

	// Ledger errors
	ErrInsufficientBalance = token.ErrInsufficientBalance
	ErrInvalidAmount       = token.ErrInvalidAmount
	ErrInvalidAccount      = token.ErrInvalidAccount
	ErrSameLedger          = token.ErrSameLedger
	ErrExchangeNotAllowed  = registry.ErrExchangeNotAllowed

	// Base token errors
	ErrAlreadyInitialized = basetoken.ErrAlreadyInitialized
	ErrNotInitialized     = basetoken.ErrNotInitialized

	// Store errors
	ErrStoreNotReady   = errors.New("pcetoken: store not ready")
	ErrStoreClosed     = errors.New("pcetoken: store is closed")
	ErrMigrationFailed = errors.New("pcetoken: migration failed")
	ErrCorruptState    = errors.New("pcetoken: persisted state is inconsistent")

	// Engine errors
	ErrNotStarted = errors.New("pcetoken: engine not started")
)

// ValidationError represents a rejected argument.
type ValidationError = settings.ValidationError

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "pcetoken: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("pcetoken: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error is a rejected argument.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsPermanent returns true for errors that will fail again with the same
// input. Nothing in the engine retries.
func IsPermanent(err error) bool {
	return IsValidation(err) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrExchangeNotAllowed) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAccount)
}
