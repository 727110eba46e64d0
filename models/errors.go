package models

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine-readable kind of a pipeline failure.
type ErrorCode string

const (
	CodeUnsupportedFormat      ErrorCode = "unsupported_format"
	CodeFileTooLarge           ErrorCode = "file_too_large"
	CodeEmptyContent           ErrorCode = "empty_content"
	CodeExtractionFailed       ErrorCode = "extraction_failed"
	CodeEmbeddingUnavailable   ErrorCode = "embedding_unavailable"
	CodeEmbeddingRequestFailed ErrorCode = "embedding_request_failed"
	CodeRetrievalUnavailable   ErrorCode = "retrieval_unavailable"
	CodePersistenceFailed      ErrorCode = "persistence_failed"
)

// PipelineError carries a stable code plus a message safe to return to
// API clients. The wrapped cause stays internal (logs only).
type PipelineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a PipelineError wrapping an optional cause.
func NewError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the error code from err, or empty string if err is not
// a pipeline error.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
