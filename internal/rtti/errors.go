package rtti

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes reflection failures.
type ErrorCode string

const (
	// ErrCodeTypeNotRegistered indicates a lookup for a name the registry does not know.
	ErrCodeTypeNotRegistered ErrorCode = "TYPE_NOT_REGISTERED"

	// ErrCodeAlreadyRegistered indicates a proxy, destructor, or cast edge was attached twice.
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"

	// ErrCodeArityMismatch indicates the argument count differs from the declared parameters.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeTypeMismatch covers invalid instance, argument, and property value types.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeOwnershipViolation indicates ownership cannot be released while co-owners exist.
	ErrCodeOwnershipViolation ErrorCode = "OWNERSHIP_VIOLATION"

	// ErrCodeUnsupportedCast indicates the requested strategy is not available for an edge.
	ErrCodeUnsupportedCast ErrorCode = "UNSUPPORTED_CAST"
)

// Error is returned by every failing registry, box, proxy, and cast operation.
//
// All failures are reported before any side effect takes place, so a caller
// that receives an *Error can assume no allocation, ledger change, or
// call-through happened.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Type names the descriptor the failure concerns, if any.
	Type string

	// Details contains additional context (expected/actual types, strategy, ...).
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsTypeNotRegistered reports whether err is a TYPE_NOT_REGISTERED error.
func IsTypeNotRegistered(err error) bool { return CodeOf(err) == ErrCodeTypeNotRegistered }

// IsAlreadyRegistered reports whether err is an ALREADY_REGISTERED error.
func IsAlreadyRegistered(err error) bool { return CodeOf(err) == ErrCodeAlreadyRegistered }

// IsArityMismatch reports whether err is an ARITY_MISMATCH error.
func IsArityMismatch(err error) bool { return CodeOf(err) == ErrCodeArityMismatch }

// IsTypeMismatch reports whether err is a TYPE_MISMATCH error.
func IsTypeMismatch(err error) bool { return CodeOf(err) == ErrCodeTypeMismatch }

// IsOwnershipViolation reports whether err is an OWNERSHIP_VIOLATION error.
func IsOwnershipViolation(err error) bool { return CodeOf(err) == ErrCodeOwnershipViolation }

// IsUnsupportedCast reports whether err is an UNSUPPORTED_CAST error.
func IsUnsupportedCast(err error) bool { return CodeOf(err) == ErrCodeUnsupportedCast }

func newNotRegisteredError(name string) *Error {
	return &Error{
		Code:    ErrCodeTypeNotRegistered,
		Message: "no type registered under this name",
		Type:    name,
	}
}

func newAlreadyRegisteredError(owner, what string) *Error {
	return &Error{
		Code:    ErrCodeAlreadyRegistered,
		Message: fmt.Sprintf("%s already registered", what),
		Type:    owner,
	}
}

func newArityError(owner, callee string, want, got int) *Error {
	return &Error{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("%s expects %d argument(s), got %d", callee, want, got),
		Type:    owner,
		Details: map[string]string{
			"expected": fmt.Sprintf("%d", want),
			"actual":   fmt.Sprintf("%d", got),
		},
	}
}

func newTypeMismatchError(owner, what string, want, got *TypeDescriptor) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("%s: expected %s, got %s", what, want.Name(), got.Name()),
		Type:    owner,
		Details: map[string]string{
			"expected": want.Name(),
			"actual":   got.Name(),
		},
	}
}

func newOwnershipError(typ string, count int) *Error {
	return &Error{
		Code:    ErrCodeOwnershipViolation,
		Message: fmt.Sprintf("cannot release ownership while %d owners share the handle", count),
		Type:    typ,
		Details: map[string]string{"count": fmt.Sprintf("%d", count)},
	}
}

func newUnsupportedCastError(src, dst string, kind CastKind) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedCast,
		Message: fmt.Sprintf("%s cast from %s to %s is not supported", kind, src, dst),
		Type:    src,
		Details: map[string]string{
			"source":      src,
			"destination": dst,
			"strategy":    kind.String(),
		},
	}
}
