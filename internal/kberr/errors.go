// Package kberr defines the query layer's error taxonomy.
//
// There is exactly one user-facing kind, ValidationError, raised on the
// first violation of a schema, grammar, or bound-check rule. Everything
// else the query layer can fail with is an internal error: a state the
// code believes is unreachable, kept separate so tests can assert on
// category instead of string-matching messages.
package kberr

import (
	"fmt"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// Validation is raised for any user-supplied query that violates a
	// schema, grammar, or bound-check rule. Precise and recoverable at
	// the request boundary.
	Validation = errors.NewKind("%s")

	// Internal is raised when the query layer reaches a state it
	// believes is unreachable. Never a response to bad user input.
	Internal = errors.NewKind("internal query-layer error: %s")
)

// Validationf builds a ValidationError with a formatted, precise
// message naming the offending property, operator, or value.
func Validationf(format string, args ...interface{}) error {
	return Validation.New(fmt.Sprintf(format, args...))
}

// Internalf builds an Internal error for an unreachable state.
func Internalf(format string, args ...interface{}) error {
	return Internal.New(fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return Validation.Is(err)
}

// IsInternal reports whether err is an Internal error.
func IsInternal(err error) bool {
	return Internal.Is(err)
}
