package model

import (
	"errors"
	"fmt"
)

// Error kinds, matched with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrMismatch   = errors.New("class belongs to a different department")
	ErrCapacity   = errors.New("class at capacity")
)

// Error is a domain failure that carries a message fit for the caller.
type Error struct {
	Op      string // e.g. "AddStudent"
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// Validation builds an ErrValidation failure.
func Validation(op, message string) *Error {
	return &Error{Op: op, Kind: ErrValidation, Message: message}
}

// NotFound builds an ErrNotFound failure for the named entity.
func NotFound(op, entity string) *Error {
	return &Error{Op: op, Kind: ErrNotFound, Message: entity + " not found"}
}

// Mismatch builds an ErrMismatch failure.
func Mismatch(op string) *Error {
	return &Error{Op: op, Kind: ErrMismatch, Message: "Class does not belong to the selected department"}
}

// Capacity builds the class-full failure.
func Capacity(op string) *Error {
	return &Error{Op: op, Kind: ErrCapacity, Message: fmt.Sprintf("Class full (Max %d)", MaxClassSize)}
}

// Message returns the caller-facing message of a domain error, or "" for anything else.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// IsDomain reports whether err is one of the four domain failures.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMismatch) ||
		errors.Is(err, ErrCapacity)
}
