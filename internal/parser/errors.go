package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks a line that does not match the log grammar
	ErrFormat = errors.New("invalid log line format")

	// ErrInvalidOperation marks a request that the entry's operation cannot satisfy
	ErrInvalidOperation = errors.New("invalid operation")
)

// FormatError describes a rejected log line
type FormatError struct {
	Line   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s: %q", ErrFormat, e.Reason, e.Line)
}

// Is lets errors.Is match FormatError against ErrFormat
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
