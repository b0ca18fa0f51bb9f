// Package tools provides shared utilities for the API.
package tools

import (
	"errors"
	"fmt"
)

// Error codes for client consumption.
// These codes are stable and can be used for programmatic error handling.
const (
	CodeInvalidField       = "INVALID_FIELD"
	CodeInvalidFilterMode  = "INVALID_FILTER_MODE"
	CodeInvalidFilterValue = "INVALID_FILTER_VALUE"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidIdentifier  = "INVALID_IDENTIFIER"
	CodeNotFound           = "NOT_FOUND"
	CodeDatabaseBusy       = "DATABASE_BUSY"
	CodeDataSource         = "DATA_SOURCE_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// APIError represents a structured error response for the API.
// Code is a stable identifier for client error handling.
// Message describes what went wrong.
// Hint provides actionable guidance to resolve the issue.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Sentinel errors for common failure conditions.
var (
	ErrInvalidField       = errors.New("invalid field")
	ErrInvalidFilterMode  = errors.New("invalid filter mode")
	ErrInvalidFilterValue = errors.New("invalid filter value")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrEmptyIdentifier    = errors.New("identifier cannot be empty")
	ErrIdentifierTooLong  = errors.New("identifier exceeds maximum length")
	ErrInvalidCharacter   = errors.New("identifier contains invalid characters")
	ErrNotFound           = errors.New("not found")
	ErrDataSource         = errors.New("data source error")
	ErrDatabaseBusy       = errors.New("database is busy")
)

// Where a field reference came from.
const (
	OriginFilter = "filter"
	OriginSort   = "sort"
)

// FieldError reports a client field name that is not in a view's allowlist.
type FieldError struct {
	Field  string
	Origin string // OriginFilter or OriginSort
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q in %s", ErrInvalidField, e.Field, e.Origin)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

// FilterModeError reports an unknown comparison mode for a field.
type FilterModeError struct {
	Field string
	Mode  string
}

func (e *FilterModeError) Error() string {
	return fmt.Sprintf("%s: %q for field %q", ErrInvalidFilterMode, e.Mode, e.Field)
}

func (e *FilterModeError) Unwrap() error { return ErrInvalidFilterMode }

// FilterValueError reports a filter value that cannot be used with its field,
// such as a non-numeric value for a numeric column.
type FilterValueError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FilterValueError) Error() string {
	return fmt.Sprintf("%s: %v for field %q (%s)", ErrInvalidFilterValue, e.Value, e.Field, e.Reason)
}

func (e *FilterValueError) Unwrap() error { return ErrInvalidFilterValue }

// InvalidRequestErr returns an error for invalid request validation.
func InvalidRequestErr(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(msg, args...))
}

// NotFoundErr returns an error indicating an entity was not found.
func NotFoundErr(entity string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

// DataSourceErr wraps a failure reported by the underlying store.
// It returns nil when err is nil.
func DataSourceErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrDataSource, err)
}
