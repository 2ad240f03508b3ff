package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	// 5XX
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	NotFound             ErrorCode = "NOT_FOUND"
	BadRequest           ErrorCode = "BAD_REQUEST"
	Forbidden            ErrorCode = "FORBIDDEN"
	RequestTimeout       ErrorCode = "REQUEST_TIMEOUT"

	// Settlement domain error codes. These are returned in the response body so
	// callers can classify failures without parsing the message.
	UnauthorizedActor       ErrorCode = "UNAUTHORIZED_ACTOR"
	DuplicatePaymentAttempt ErrorCode = "DUPLICATE_PAYMENT_ATTEMPT"
	InsufficientFunds       ErrorCode = "INSUFFICIENT_FUNDS"
	AlreadySubmitted        ErrorCode = "ALREADY_SUBMITTED"
	OrderingConflict        ErrorCode = "ORDERING_CONFLICT"
	StaleInput              ErrorCode = "STALE_INPUT"
	NoAvailableNotary       ErrorCode = "NO_AVAILABLE_NOTARY"
	NotaryRejected          ErrorCode = "NOTARY_REJECTED"
	NoSettlementMethod      ErrorCode = "NO_SETTLEMENT_METHOD"
	NoPaymentRecorded       ErrorCode = "NO_PAYMENT_RECORDED"
	UnsupportedRail         ErrorCode = "UNSUPPORTED_RAIL"
	InvariantViolation      ErrorCode = "INVARIANT_VIOLATION"
)

// Error represents an error with an HTTP status code and an application-specific error code.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

const UninitializedStatusCode = 0

func (e *Error) Error() string {
	return e.Err.Error()
}

// NewError creates a new Error with the provided status code, error code, and underlying error.
// If the status code is not provided (0), it defaults to http.StatusInternalServerError(500).
// If the error code is empty, it defaults to INTERNAL_SERVICE_ERROR.
func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	if statusCode == UninitializedStatusCode {
		statusCode = http.StatusInternalServerError
	}
	if errorCode == "" {
		errorCode = InternalServiceError
	}
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        err,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, errors.New(msg))
}

func NewInternalServiceError(err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  InternalServiceError,
		Err:        err,
	}
}

// IsRetriable reports whether the caller may safely restart the failed
// operation from scratch. ALREADY_SUBMITTED is deliberately excluded: it means
// a payment reached the rail without a durable record on our side, and blind
// retries risk paying twice.
func (e *Error) IsRetriable() bool {
	return e.ErrorCode == OrderingConflict
}
