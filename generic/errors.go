/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  Every validation failure the engine can report, in one place. All of them
  are detected before any arithmetic runs and are returned as values, so the
  dashboard can render a specific message per kind.

ERROR CATEGORIES:
  1. Validation errors - bad period, unusable configuration, bad score,
     bad manual adjustment
  2. Lookup errors - missing saved result
  3. Conflict errors - revenue record imported twice
  4. Store errors - wrapped database failures (not defined here)

USAGE:
  if errors.Is(err, generic.ErrInvalidPerformanceScore) {
      // ask the operator to re-enter the score
  }

  var engErr *generic.EngineError
  if errors.As(err, &engErr) {
      render(engErr.Kind, engErr.Field, engErr.Message)
  }

SEE ALSO:
  - compensation/validate.go: Produces these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotConfigured is returned when no usable configuration exists
	// for the employee (missing, unnamed, or with an unknown role type).
	ErrEmployeeNotConfigured = errors.New("employee not configured")

	// ErrInvalidEmploymentType is returned when employment type is neither
	// full_time nor part_time.
	ErrInvalidEmploymentType = errors.New("invalid employment type")

	// ErrInvalidPerformanceScore is returned when an eligible employee has no
	// score, a score outside 1..10, or a negative streak count.
	ErrInvalidPerformanceScore = errors.New("invalid performance score")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidAdjustment is returned for out-of-domain manual inputs or
	// negative configured rates and statutory amounts.
	ErrInvalidAdjustment = errors.New("invalid adjustment")

	// ErrResultNotFound is returned when a saved result does not exist.
	ErrResultNotFound = errors.New("result not found")

	// ErrDuplicateRecord is returned when a revenue record id already exists.
	ErrDuplicateRecord = errors.New("duplicate revenue record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the kind and the offending field
// =============================================================================

// ErrorKind is the discriminator the caller switches on.
type ErrorKind string

const (
	KindEmployeeNotConfigured   ErrorKind = "EmployeeNotConfigured"
	KindInvalidEmploymentType   ErrorKind = "InvalidEmploymentType"
	KindInvalidPerformanceScore ErrorKind = "InvalidPerformanceScore"
	KindInvalidPeriod           ErrorKind = "InvalidPeriod"
	KindInvalidAdjustment       ErrorKind = "InvalidAdjustment"
)

var kindSentinels = map[ErrorKind]error{
	KindEmployeeNotConfigured:   ErrEmployeeNotConfigured,
	KindInvalidEmploymentType:   ErrInvalidEmploymentType,
	KindInvalidPerformanceScore: ErrInvalidPerformanceScore,
	KindInvalidPeriod:           ErrInvalidPeriod,
	KindInvalidAdjustment:       ErrInvalidAdjustment,
}

// EngineError is a validation failure with enough context to render.
type EngineError struct {
	Kind    ErrorKind
	Field   string // json name of the offending input, when there is one
	Message string
}

// NewEngineError builds an EngineError with a formatted message.
func NewEngineError(kind ErrorKind, field, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *EngineError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *EngineError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// KindOf extracts the error kind, if err is (or wraps) an EngineError.
func KindOf(err error) (ErrorKind, bool) {
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return engErr.Kind, true
	}
	return "", false
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidEmploymentType) ||
		errors.Is(err, ErrInvalidPerformanceScore) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidAdjustment)
}

// IsConflict returns true if the write collides with existing data.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRecord)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotConfigured) ||
		errors.Is(err, ErrResultNotFound)
}
