// Package errors provides the standardized error taxonomy for the
// student-records service.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeCandidateLookupFailed ErrorCode = "CANDIDATE_LOOKUP_FAILED"
	ErrCodeInvalidCriteria       ErrorCode = "INVALID_CRITERIA"
	ErrCodeUnknownPreset         ErrorCode = "UNKNOWN_PRESET"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRecordNotFound   ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeDuplicateRecord  ErrorCode = "DUPLICATE_RECORD"

	ErrCodeImportParseFailed ErrorCode = "IMPORT_PARSE_FAILED"
	ErrCodeSchemaNotFound    ErrorCode = "SCHEMA_NOT_FOUND"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateLookupFailedError tags a failed candidate-store lookup
// with the field whose query failed. A failed lookup aborts the whole
// detection call; no partial duplicate set is ever returned.
func NewCandidateLookupFailedError(field string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateLookupFailed,
		Message:   "Candidate lookup failed",
		Details:   fmt.Sprintf("field: %s, error: %s", field, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCriteriaError creates a non-retryable configuration error.
func NewInvalidCriteriaError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCriteria,
		Message:   "Matching criteria failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownPresetError creates a non-retryable caller error for an
// unrecognized preset name.
func NewUnknownPresetError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownPreset,
		Message:   "Unknown matching preset",
		Details:   fmt.Sprintf("preset: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable payload validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable not-found error.
func NewRecordNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   "Student record not found",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateRecordError creates a non-retryable duplicate rejection,
// carrying the best matching candidate id.
func NewDuplicateRecordError(candidateID string, score float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateRecord,
		Message:   "Record matches an existing student",
		Details:   fmt.Sprintf("candidateId: %s, score: %.2f", candidateID, score),
		Retryable: false,
		Metadata:  map[string]interface{}{"candidateId": candidateID, "score": score},
		Timestamp: time.Now().UTC(),
	}
}

// NewImportParseFailedError creates a non-retryable import parse error.
func NewImportParseFailedError(line int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeImportParseFailed,
		Message:   "Failed to parse import row",
		Details:   fmt.Sprintf("line: %d, error: %s", line, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaNotFoundError creates a non-retryable registry error.
func NewSchemaNotFoundError(recordType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaNotFound,
		Message:   "No schema registered for record type",
		Details:   fmt.Sprintf("recordType: %s", recordType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
