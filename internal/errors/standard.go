// Package errors provides standardized error messaging for the allocator.
package errors

import (
	"fmt"
	"runtime"
)

// ErrorCategory classifies the source of an allocator error.
type ErrorCategory string

const (
	// CategorySystem marks an OS-primitive failure: advance-break,
	// map-anon, or unmap returned an error.
	CategorySystem ErrorCategory = "SYSTEM"
	// CategoryInvariant marks an internal consistency check tripping.
	// Used only by debug-assertion helpers exercised in tests, never on
	// the allocation hot path.
	CategoryInvariant ErrorCategory = "INVARIANT"
)

// StandardError provides a consistent error format across the allocator.
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface.
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// NewStandardError creates a new standardized error, capturing the
// immediate caller for diagnostics.
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(1)

	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// OSPrimitiveFailure reports that one of the OS primitives the allocator
// depends on (advance-break, map-anon, unmap, query-break) returned an
// error. Per the allocator's error-handling design, this is always fatal.
func OSPrimitiveFailure(primitive string, cause error) *StandardError {
	return NewStandardError(CategorySystem, "OS_PRIMITIVE_FAILURE",
		fmt.Sprintf("%s failed: %v", primitive, cause),
		map[string]interface{}{"primitive": primitive, "cause": cause.Error()})
}

// InvariantViolation reports that a debug-assertion helper found the
// block list in a state the allocator's invariants forbid.
func InvariantViolation(invariant, details string) *StandardError {
	return NewStandardError(CategoryInvariant, "INVARIANT_VIOLATION",
		fmt.Sprintf("invariant %q violated: %s", invariant, details),
		map[string]interface{}{"invariant": invariant, "details": details})
}
