// Package errs carries the service error taxonomy. Handlers map codes to
// HTTP behavior; everything below the handler layer only returns errors
// tagged with one of these codes.
package errs

import (
	"errors"
	"fmt"
)

type Code string

const (
	// Unauthenticated: no valid principal on a protected operation.
	Unauthenticated Code = "unauthenticated"
	// Forbidden: authenticated but not entitled to the target note.
	Forbidden Code = "forbidden"
	// NotFound: no record with the given identifier.
	NotFound Code = "not_found"
	// Invalid: malformed input (empty title, oversized import, bad shape).
	Invalid Code = "invalid"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the taxonomy code from err, walking wrapped errors.
// Untagged errors report an empty code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
