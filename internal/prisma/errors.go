package prisma

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceRead is returned when the source schema cannot be read
	ErrSourceRead = errors.New("failed to read source schema")

	// ErrSourceParse is returned when the source schema is malformed
	ErrSourceParse = errors.New("failed to parse source schema")
)

// ParseError points at the line of a .prisma file that could not be parsed
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Unwrap lets callers match parse failures with errors.Is(err, ErrSourceParse)
func (e *ParseError) Unwrap() error {
	return ErrSourceParse
}
