package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// OperationErrorCode classifies a failed index call
type OperationErrorCode string

const (
	OperationErrorValidation      OperationErrorCode = "validation_failed"
	OperationErrorEncodeFailed    OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed    OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorTimeout         OperationErrorCode = "timeout"
	OperationErrorQueryFailed     OperationErrorCode = "query_failed"
)

// OperationError describes a failed call to the qdrant REST API
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
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	return fmt.Sprintf("qdrant %s failed (code=%s status=%d): %s", e.Operation, e.Code, e.StatusCode, msg)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// countsAgainstIndex reports whether the error says the index is unhealthy.
// Caller mistakes and 4xx answers do not trip the breaker.
func countsAgainstIndex(err error) bool {
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		return true
	}
	switch opErr.Code {
	case OperationErrorValidation, OperationErrorEncodeFailed:
		return false
	case OperationErrorQueryFailed:
		return opErr.StatusCode == 0 || opErr.StatusCode >= 500
	}
	return true
}

func opErr(op string, code OperationErrorCode, msg string, cause error) *OperationError {
	return &OperationError{Code: code, Operation: op, Message: msg, Cause: cause}
}

func classifyHTTPCallError(op string, err error) *OperationError {
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, "request timed out", err)
	}
	return opErr(op, OperationErrorTransportFailed, "request failed", err)
}
