package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Number carries the numeric code the
// ledger reports for contract failures (zero when the error has none).
type Error struct {
	Code    ErrorCode
	Number  uint32
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewLedgerError builds a domain error carrying a ledger contract number.
func NewLedgerError(code ErrorCode, number uint32, message string) *Error {
	return &Error{Code: code, Number: number, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Agreement errors. Numbers match the ledger's contract error table.
var (
	ErrDuplicateAgreement    = NewLedgerError(ErrCodeConflict, 4, "agreement already exists")
	ErrInvalidRent           = NewLedgerError(ErrCodeInvalid, 5, "monthly rent must be positive")
	ErrInvalidDateRange      = NewLedgerError(ErrCodeInvalid, 6, "end date must be after start date")
	ErrInvalidCommissionRate = NewLedgerError(ErrCodeInvalid, 7, "agent commission rate must be between 0 and 100")
)

var (
	ErrAgreementNotFound  = NewError(ErrCodeNotFound, "agreement not found")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrCounterOverflow    = NewError(ErrCodeInternal, "agreement counter overflow")
	ErrNotificationFailed = NewError(ErrCodeInternal, "agreement stored but notification failed")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// LedgerNumber returns the ledger contract number attached to err, if any.
func LedgerNumber(err error) (uint32, bool) {
	var dErr *Error
	if errors.As(err, &dErr) && dErr.Number != 0 {
		return dErr.Number, true
	}
	return 0, false
}
