package model

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. Every typed error below matches exactly one.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrCycle      = errors.New("cycle")
	ErrConflict   = errors.New("conflict")
)

// ValidationError reports malformed input. Err optionally carries the cause,
// e.g. a NotFoundError for a reference that does not resolve.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) Unwrap() error        { return e.Err }

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError reports a unique-constraint collision.
type DuplicateError struct {
	Entity string
	Key    string
}

func (e *DuplicateError) Error() string {
	if e.Key == "" {
		return e.Entity + " already exists"
	}
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// CycleError reports a genre parent assignment that would close a loop.
type CycleError struct {
	GenreID  int64
	ParentID int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("setting parent of genre %d to %d would create a cycle", e.GenreID, e.ParentID)
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// ConflictError reports that a concurrent change invalidated an operation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NewValidation is shorthand for a ValidationError without a cause.
func NewValidation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound is shorthand for a NotFoundError.
func NewNotFound(entity string, key interface{}) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}
