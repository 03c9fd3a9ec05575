package qdrant

import (
	"fmt"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

type OperationErrorCode string

const (
	OperationErrorValidation        OperationErrorCode = "validation_failed"
	OperationErrorDimensionMismatch OperationErrorCode = "dimension_mismatch"
	OperationErrorEncodeFailed      OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed      OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed   OperationErrorCode = "transport_failed"
	OperationErrorTimeout           OperationErrorCode = "timeout"
	OperationErrorQueryFailed       OperationErrorCode = "query_failed"
	OperationErrorNotFound          OperationErrorCode = "not_found"
)

type OperationError struct {
	Code       OperationErrorCode
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "qdrant operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf("qdrant operation failed (op=%s code=%s status=%d): %s", e.Operation, e.Code, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("qdrant operation failed (op=%s code=%s status=%d): %v", e.Operation, e.Code, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("qdrant operation failed (op=%s code=%s status=%d)", e.Operation, e.Code, e.StatusCode)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// HTTPStatusCode exposes the engine status for retry classification.
func (e *OperationError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// Is maps a dimension mismatch to a configuration error and a missing point
// to not found. Everything else is left to the caller's classification.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case apperr.ErrConfiguration:
		return e.Code == OperationErrorDimensionMismatch
	case apperr.ErrNotFound:
		return e.Code == OperationErrorNotFound
	}
	return false
}

func opErr(op string, code OperationErrorCode, msg string, cause error) error {
	return &OperationError{
		Code:      code,
		Operation: op,
		Message:   msg,
		Cause:     cause,
	}
}
