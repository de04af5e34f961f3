package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds of entities reported by NotFoundError.
const (
	KindPlan    = "plan"
	KindSession = "session"
)

// FieldError describes a problem with a single constraint field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError indicates malformed or impossible constraints. No
// mutation is performed when it is returned.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

// NewValidationError builds a ValidationError from a message and optional
// field errors.
func NewValidationError(msg string, fields ...FieldError) error {
	return &ValidationError{Err: errors.New(msg), Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("validation failed: %v (%s)", e.Err, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError indicates an unknown plan or session id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ComputationError wraps a scorer strategy failure. It is logged and
// replaced by the fallback score, never returned to callers of the
// analyzer.
type ComputationError struct {
	Scorer string
	Err    error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("scorer %s failed: %v", e.Scorer, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// ConflictError indicates a stale write: the stored plan version no longer
// matches the version the caller read.
type ConflictError struct {
	PlanID  string
	Version int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("plan %q was modified concurrently (stored version %d)", e.PlanID, e.Version)
}

// IsRetryable reports whether err is a conflict that can be retried by
// reloading the plan and re-applying the command.
func IsRetryable(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
