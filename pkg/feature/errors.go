package feature

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateFeature is returned when two features share a name.
	ErrDuplicateFeature = errors.New("duplicate feature name")

	// ErrPhaseOrder is returned when a phase is run out of order or twice.
	ErrPhaseOrder = errors.New("feature phase out of order")
)

// Phase names a step of the composition protocol.
type Phase string

const (
	PhaseStorage    Phase = "storage"
	PhaseServices   Phase = "services"
	PhaseInitialize Phase = "initialize"
)

// RegistrationError reports a failure in Phase A or B.
type RegistrationError struct {
	Feature string
	Phase   Phase
	Err     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register %s of feature %s: %v", e.Phase, e.Feature, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// InitializationError reports the feature whose Initialize failed. It is always fatal.
type InitializationError struct {
	Feature string
	Err     error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("failed to initialize feature %s: %v", e.Feature, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
