// Package errors defines stable error codes for svinv failure modes.
//
// Every extraction failure is attributed to a (file, module, port) triple so
// diagnostics can name exactly what could not be resolved. Failures are never
// downgraded to defaults: an unresolved port is an error, not a width-1 input.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseError indicates the file does not conform to the supported grammar
	ParseError ErrorCode = "PARSE_ERROR"
	// UnsupportedRange indicates a packed dimension that is not a
	// literal-integer, zero-based range
	UnsupportedRange ErrorCode = "UNSUPPORTED_RANGE"
	// UnresolvedPort indicates a non-ANSI header identifier with no matching
	// body declaration
	UnresolvedPort ErrorCode = "UNRESOLVED_PORT"
	// DuplicateModule indicates two module definitions sharing a name within
	// one file
	DuplicateModule ErrorCode = "DUPLICATE_MODULE"
	// FileUnreadable indicates the source file could not be read
	FileUnreadable ErrorCode = "FILE_UNREADABLE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ExtractError represents an extraction failure with code and attribution
type ExtractError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	File    string    `json:"file,omitempty"`
	Module  string    `json:"module,omitempty"`
	Port    string    `json:"port,omitempty"`
	Line    int       `json:"line,omitempty"`
	Column  int       `json:"column,omitempty"`
	cause   error     // Underlying error (not exported to JSON)
}

// New creates a new ExtractError
func New(code ErrorCode, message string) *ExtractError {
	return &ExtractError{Code: code, Message: message}
}

// Wrap creates a new ExtractError around an underlying cause
func Wrap(code ErrorCode, message string, cause error) *ExtractError {
	return &ExtractError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *ExtractError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.File != "" {
		loc := e.File
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
		}
		s += " (" + loc
		if e.Module != "" {
			s += ", module " + e.Module
		}
		if e.Port != "" {
			s += ", port " + e.Port
		}
		s += ")"
	} else if e.Module != "" {
		s += " (module " + e.Module
		if e.Port != "" {
			s += ", port " + e.Port
		}
		s += ")"
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Unwrap returns the underlying error
func (e *ExtractError) Unwrap() error {
	return e.cause
}

// InFile returns a copy of the error attributed to the given file
func (e *ExtractError) InFile(file string) *ExtractError {
	c := *e
	c.File = file
	return &c
}

// InModule returns a copy of the error attributed to the given module
func (e *ExtractError) InModule(module string) *ExtractError {
	c := *e
	c.Module = module
	return &c
}

// AtPort returns a copy of the error attributed to the given port
func (e *ExtractError) AtPort(port string) *ExtractError {
	c := *e
	c.Port = port
	return &c
}

// At returns a copy of the error attributed to the given source position
func (e *ExtractError) At(line, column int) *ExtractError {
	c := *e
	c.Line = line
	c.Column = column
	return &c
}

// CodeOf returns the error code of err, or InternalError when err carries none
func CodeOf(err error) ErrorCode {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return InternalError
}

// IsCode reports whether err carries the given error code
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
