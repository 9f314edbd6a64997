package services

import (
	"errors"
	"fmt"
)

// login refusals
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrPaymentRequired    = errors.New("payment required")
)

// session failures
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionMismatch = errors.New("session superseded or closed")
	ErrSessionExpired  = errors.New("session expired due to inactivity")
)

// otp protocol
var (
	ErrOTPNotFound      = errors.New("otp record not found")
	ErrOTPExpired       = errors.New("otp expired")
	ErrOTPMismatch      = errors.New("otp mismatch")
	ErrOTPThrottled     = errors.New("otp requested too often")
	ErrResetNotVerified = errors.New("password reset code not verified")
)

// accounts and payments
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrAlreadyVerified  = errors.New("email already verified")
	ErrTermsNotAccepted = errors.New("terms not accepted")
	ErrAlreadyPaid      = errors.New("membership already active")
	ErrGateway          = errors.New("payment gateway failure")
	ErrContentNotFound  = errors.New("test not found")
	ErrContentExists    = errors.New("test already exists")
	ErrTutorUnavailable = errors.New("ai tutor failure")
)

// ValidationError is a malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
