package ebml

import (
	"errors"
	"fmt"
)

// FormatError reports malformed EBML data. It is never recoverable by
// supplying more input: the bytes already seen are wrong.
type FormatError struct {
	Op     string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("ebml: %s: %s", e.Op, e.Reason)
}

var _ error = (*FormatError)(nil)

// Errorf returns a FormatError for op with a formatted reason.
func Errorf(op string, format string, args ...any) *FormatError {
	return &FormatError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err, or any error it wraps, is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
