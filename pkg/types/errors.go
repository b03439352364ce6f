package types

import (
	"errors"
	"fmt"
)

// Error kinds of the mapping core. Every typed error below matches exactly
// one of these through errors.Is.
var (
	// ErrStore is returned when a store round trip fails.
	ErrStore = errors.New("store failure")

	// ErrResolution is returned when a stored component class cannot be
	// resolved to a registered, instantiable component type.
	ErrResolution = errors.New("component resolution failed")

	// ErrValidation is returned when a property violates its null or blank
	// constraint.
	ErrValidation = errors.New("validation failed")

	// ErrIntegrity is returned when the store holds rows that contradict the
	// in-memory state, such as a header row for a brand-new entity.
	ErrIntegrity = errors.New("integrity violation")
)

// Component attachment errors.
var (
	ErrComponentBound = errors.New("component is bound to another entity")
	ErrNilComponent   = errors.New("component must not be nil")
	ErrDuplicateClass = errors.New("component class already registered")
	ErrNotAttached    = errors.New("component is not attached to an entity")
	ErrUnsavedEntity  = errors.New("entity has not been saved")
)

// StoreError wraps a failure of the store collaborator.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("store: %v", e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// ResolutionError reports a kind id or class name that does not resolve to
// a registered component type.
type ResolutionError struct {
	Class  string
	KindID int64
	Reason string
}

func (e *ResolutionError) Error() string {
	switch {
	case e.Class != "":
		return fmt.Sprintf("resolve component %q: %s", e.Class, e.Reason)
	default:
		return fmt.Sprintf("resolve component kind %d: %s", e.KindID, e.Reason)
	}
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// ValidationError reports the first property of a component that failed
// validation.
type ValidationError struct {
	Component string
	Property  string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("validation failed for property %q: %s", e.Property, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IntegrityError reports rows found where the in-memory state says none
// should exist.
type IntegrityError struct {
	Table   string
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: %s", e.Table, e.Message)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// NewStoreError wraps err as a StoreError for the named operation. A nil err
// yields nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// NewResolutionError creates a ResolutionError for a class name.
func NewResolutionError(class string, kindID int64, reason string) error {
	return &ResolutionError{Class: class, KindID: kindID, Reason: reason}
}

// NewValidationError creates a ValidationError.
func NewValidationError(component, property, message string) error {
	return &ValidationError{Component: component, Property: property, Message: message}
}

// NewIntegrityError creates an IntegrityError.
func NewIntegrityError(table, message string) error {
	return &IntegrityError{Table: table, Message: message}
}

// IsStoreError checks if an error is a store error.
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsResolutionError checks if an error is a resolution error.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrResolution)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsIntegrityError checks if an error is an integrity error.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrIntegrity)
}
