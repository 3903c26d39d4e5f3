package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the status code the API boundary should
// return: configuration and validation problems are client errors,
// lookup and database failures are server errors.
func HTTPStatus(err error) int {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return http.StatusInternalServerError
	}

	switch stdErr.Code {
	case ErrCodeInvalidCriteria, ErrCodeUnknownPreset, ErrCodeValidationFailed, ErrCodeImportParseFailed:
		return http.StatusBadRequest
	case ErrCodeRecordNotFound, ErrCodeSchemaNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateRecord:
		return http.StatusConflict
	case ErrCodeCandidateLookupFailed, ErrCodeQueryExecutionFailed, ErrCodeDatabaseConnectionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP serializes an error as a JSON response with the mapped
// status. Non-StandardError values are normalized first.
func WriteHTTP(w http.ResponseWriter, err error) {
	stdErr := Normalize(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr))
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": stdErr,
	})
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}
