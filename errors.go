package csvstream

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by [Parser]. Row errors arrive wrapped in a
// [*ParseError], encoding errors in an [*EncodingError]; match them with
// [errors.Is].
var (
	ErrInvalidEncoding = errors.New("invalid byte sequence for input encoding")
	ErrOversizedRow    = errors.New("row exceeds maximum row size")
	ErrSchemaMismatch  = errors.New("row length does not match headers")
	ErrInvalidUTF8     = errors.New("invalid UTF-8 in cell")
	ErrNoHeaders       = errors.New("no headers defined")
	ErrInvalidOptions  = errors.New("invalid parser options")
)

// ParseError reports a row that could not be turned into a [Row].
type ParseError struct {
	Line int   // Logical row number (1-indexed) of the failing row
	Err  error // Underlying error, wraps one of the sentinels above
}

// Error returns a formatted error message with the row location.
func (e *ParseError) Error() string {
	return fmt.Sprintf("csvstream: parse error on line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *ParseError) Unwrap() error {
	return e.Err
}

// EncodingError reports input bytes that are not valid in the detected
// encoding. Encoding errors are never deferred.
type EncodingError struct {
	Charset string // Name of the encoding being decoded
	Offset  int64  // Offset in the raw input where decoding failed
	Err     error  // Underlying error, wraps ErrInvalidEncoding
}

// Error returns a formatted error message with the input offset.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("csvstream: %s decoding error at byte %d: %v", e.Charset, e.Offset, e.Err)
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// rowError wraps err with the line it occurred on.
func rowError(line int, err error) *ParseError {
	return &ParseError{Line: line, Err: err}
}
