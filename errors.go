package propbind

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for validation failures.
const (
	ErrCodeRequired    = "required"
	ErrCodeMin         = "min"
	ErrCodeMax         = "max"
	ErrCodeOneOf       = "oneof"
	ErrCodeInvalidType = "invalid_type"
	ErrCodeUnknownKey  = "unknown_key"
)

var (
	// ErrNilTarget is returned when BindTo receives a nil target.
	ErrNilTarget = errors.New("propbind: bind target is nil")

	// ErrUnsupportedTarget is returned when an engine cannot populate the target's type.
	ErrUnsupportedTarget = errors.New("propbind: unsupported bind target")

	// ErrNilSources is returned when binding runs without a property-source stack.
	ErrNilSources = errors.New("propbind: property sources are nil")
)

// BindError reports that a target could not be bound from the property sources.
// The engine's failure is kept as the cause.
type BindError struct {
	Target string // Description of the target (String() or type name)
	Prefix string // Namespace the target was bound under
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("cannot bind to %s: %v", e.Target, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// describeTarget names a bind target for error messages.
func describeTarget(target any) string {
	if target == nil {
		return "<nil>"
	}
	if isNilPointer(target) {
		return fmt.Sprintf("%T(nil)", target)
	}
	if s, ok := target.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", target)
}

// ValidationError aggregates field-level binding and validation failures.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "property validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("property validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "property validation failed: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FieldError represents a single field failure.
type FieldError struct {
	FieldPath string // Dot notation (e.g., "Database.Host")
	Code      string // Error code (e.g., "required", "min")
	Message   string // Human-readable description
}
