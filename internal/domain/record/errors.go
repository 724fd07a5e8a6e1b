package record

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a lifecycle failure so API clients can branch on a
// stable code instead of matching message text.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeInvalidOTP         ErrorCode = "invalid_otp"
	CodeOTPExpired         ErrorCode = "otp_expired"
	CodeOTPNotGenerated    ErrorCode = "otp_not_generated"
	CodeOTPVerified        ErrorCode = "otp_already_verified"
	CodeTransitionRejected ErrorCode = "transition_rejected"
	CodeNotFound           ErrorCode = "not_found"
)

// Error is a coded lifecycle error.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds a coded error with a formatted message.
func NewError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the error code, or empty when err is not a lifecycle error.
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsValidation reports whether err was rejected before any store call.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }
