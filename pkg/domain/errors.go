package domain

import (
	"context"
	"errors"
	"fmt"
)

// Validation reasons reported by value object constructors.
const (
	ReasonEmpty   = "empty or whitespace"
	ReasonTooLong = "exceeds maximum length"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ErrGreetingNotFound is returned when a greeting ID cannot be found in the repository.
var ErrGreetingNotFound = errors.New("greeting not found")

// ErrGreetingExists is returned when saving a greeting whose ID is already stored.
var ErrGreetingExists = errors.New("greeting already exists")

// ErrCorruptRecord is returned when a stored record violates the structural bounds of the domain.
var ErrCorruptRecord = errors.New("corrupt greeting record")

// ValidationError describes why raw input was rejected by a value object.
type ValidationError struct {
	Field  string
	Reason string
	Max    int
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonTooLong {
		return fmt.Sprintf("%s %s of %d characters", e.Field, e.Reason, e.Max)
	}
	return fmt.Sprintf("%s is %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError wraps a storage I/O failure with the repository operation that caused it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err unless it is nil, a context error or already a domain outcome.
// Context errors and domain sentinels pass through so callers can still match them directly.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isPassThrough(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func isPassThrough(err error) bool {
	for _, target := range []error{ErrGreetingNotFound, ErrGreetingExists, ErrCorruptRecord, ErrValidation} {
		if errors.Is(err, target) {
			return true
		}
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
