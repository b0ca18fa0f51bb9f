package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// RespErr writes a structured error response to the ResponseWriter.
func RespErr(w http.ResponseWriter, err error) {
	status, apiErr := BuildAPIError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiErr)
}

// RespJSON writes v as a JSON response with the given status code.
func RespJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error("failed to encode response", "error", err.Error())
	}
}

// BuildAPIError maps an error to an HTTP status code and structured APIError.
// Returns appropriate status code and error details with diagnostic hints.
func BuildAPIError(err error) (int, APIError) {
	switch {
	case errors.Is(err, ErrInvalidField):
		return http.StatusBadRequest, APIError{
			Code:    CodeInvalidField,
			Message: err.Error(),
			Hint:    "Filters and sorting may only reference the columns shown in the table.",
		}
	case errors.Is(err, ErrInvalidFilterMode):
		return http.StatusBadRequest, APIError{
			Code:    CodeInvalidFilterMode,
			Message: err.Error(),
			Hint:    "Valid filter modes: contains, startsWith, endsWith, equals, greaterThan, lessThan, notEquals.",
		}
	case errors.Is(err, ErrInvalidFilterValue):
		return http.StatusBadRequest, APIError{
			Code:    CodeInvalidFilterValue,
			Message: err.Error(),
			Hint:    "Numeric columns only accept numbers. Range filters take a two element array.",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, APIError{
			Code:    CodeInvalidRequest,
			Message: err.Error(),
		}
	case errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrEmptyIdentifier),
		errors.Is(err, ErrIdentifierTooLong),
		errors.Is(err, ErrInvalidCharacter):
		return http.StatusBadRequest, APIError{
			Code:    CodeInvalidIdentifier,
			Message: err.Error(),
			Hint:    "Identifiers must start with a letter or underscore, contain only letters, digits, and underscores, and be at most 128 characters.",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, APIError{
			Code:    CodeNotFound,
			Message: err.Error(),
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, APIError{
			Code:    CodeTimeout,
			Message: "request timed out",
			Hint:    "Narrow the query with filters or a smaller page size, or raise LUTE_REQUEST_TIMEOUT.",
		}
	case errors.Is(err, ErrDatabaseBusy):
		return http.StatusServiceUnavailable, APIError{
			Code:    CodeDatabaseBusy,
			Message: "database is busy",
			Hint:    "Another operation is writing to the database. Retry the request.",
		}
	case errors.Is(err, ErrDataSource):
		Logger.Error("data source error", "error", err.Error())
		return http.StatusServiceUnavailable, APIError{
			Code:    CodeDataSource,
			Message: "database query failed",
			Hint:    "Check server logs for details.",
		}

	default:
		// Avoid exposing SQL syntax errors, connection details, etc.
		Logger.Error("unhandled error", "error", err.Error())
		return http.StatusInternalServerError, APIError{
			Code:    CodeInternalError,
			Message: "internal server error",
			Hint:    "An unexpected error occurred. Check server logs for details.",
		}
	}
}
