package table

import (
	"errors"
	"fmt"
)

// ErrInput is matched by every *InputError via errors.Is.
var ErrInput = errors.New("invalid input")

// InputError reports a malformed table or an invalid request against one
// (unknown column, unknown forced type, mismatched lengths). It is never
// recovered from.
type InputError struct {
	Column  string
	Message string
}

func (e *InputError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("invalid input: column %q: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

func (e *InputError) Is(target error) bool { return target == ErrInput }

// Inputf builds an *InputError for column.
func Inputf(column, format string, args ...any) *InputError {
	return &InputError{Column: column, Message: fmt.Sprintf(format, args...)}
}
