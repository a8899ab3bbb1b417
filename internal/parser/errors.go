package parser

import (
	"errors"
	"fmt"
)

// ErrMalformed matches any ParseError of kind KindMalformed via errors.Is.
var ErrMalformed = errors.New("malformed analysis response")

// ErrorKind classifies a parse failure.
type ErrorKind string

// KindMalformed means no usable JSON object with a threats array was found.
const KindMalformed ErrorKind = "malformed"

// ParseError is returned when a backend response cannot be turned into a result.
type ParseError struct {
	Err     error
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s): %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformed) match malformed parse errors.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed && e.Kind == KindMalformed
}

func malformed(format string, args ...any) *ParseError {
	return &ParseError{Kind: KindMalformed, Message: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err is a malformed-response parse error.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
