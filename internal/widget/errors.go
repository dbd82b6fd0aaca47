package widget

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDefinition is returned when a definition is structurally unusable (empty ID, no renderer)
	ErrInvalidDefinition = errors.New("invalid widget definition")

	// ErrDuplicateDefinition is returned when a different definition is registered under an existing ID
	ErrDuplicateDefinition = errors.New("duplicate widget definition")

	// ErrInvalidDefault is returned when an option's default value fails its own kind's validation
	ErrInvalidDefault = errors.New("invalid option default")

	// ErrInvalidGridConstraint is returned when grid bounds are non-positive or min exceeds max
	ErrInvalidGridConstraint = errors.New("invalid grid constraint")

	// ErrUnknownWidgetType is returned when an occurrence references an unregistered definition
	ErrUnknownWidgetType = errors.New("unknown widget type")

	// ErrInvalidValue is returned when a stored value does not match an option's kind
	ErrInvalidValue = errors.New("invalid option value")
)

// DefinitionError describes a registration failure for a single definition.
type DefinitionError struct {
	ID     string
	Option string // empty unless the failure is option-specific
	Err    error
}

func (e *DefinitionError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("widget %q option %q: %v", e.ID, e.Option, e.Err)
	}
	return fmt.Sprintf("widget %q: %v", e.ID, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// CoercionWarning records a stored property that failed validation and was
// replaced by the option default. It is never fatal to resolution.
type CoercionWarning struct {
	Option string `json:"option"`
	Value  any    `json:"value"`
	Reason string `json:"reason"`
}

func (w CoercionWarning) Error() string {
	return fmt.Sprintf("option %q: %s; default used", w.Option, w.Reason)
}

func (w CoercionWarning) Unwrap() error {
	return ErrInvalidValue
}
