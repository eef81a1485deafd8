package gqlauth

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a wire-visible authorization failure. The string
// values are part of the response contract consumed by API clients and
// must not change.
type ErrorCode string

const (
	CodeUnauthenticated         ErrorCode = "UNAUTHENTICATED"
	CodeNotVerified             ErrorCode = "NOT_VERIFIED"
	CodeNoSufficientPermissions ErrorCode = "NO_SUFFICIENT_PERMISSIONS"
	CodeExpired                 ErrorCode = "EXPIRED"
	CodeInvalid                 ErrorCode = "INVALID"
	CodeRevoked                 ErrorCode = "REVOKED"
	CodeUserNotFound            ErrorCode = "USER_NOT_FOUND"
	CodeAlreadyVerified         ErrorCode = "ALREADY_VERIFIED"
	CodeInvalidToken            ErrorCode = "INVALID_TOKEN"
)

var defaultMessages = map[ErrorCode]string{
	CodeUnauthenticated:         "Unauthenticated.",
	CodeNotVerified:             "Please verify your account.",
	CodeNoSufficientPermissions: "Permissions found could not satisfy the required permissions.",
	CodeExpired:                 "Signature has expired.",
	CodeInvalid:                 "Invalid token.",
	CodeRevoked:                 "Token has been revoked.",
	CodeUserNotFound:            "No user found for the given credential.",
	CodeAlreadyVerified:         "Account already verified.",
	CodeInvalidToken:            "Invalid or expired token.",
}

// Message returns the default human-readable message for the code.
func (c ErrorCode) Message() string {
	if msg, ok := defaultMessages[c]; ok {
		return msg
	}
	return string(c)
}

// AuthError is the structured denial value returned in place of a field's
// normal result. It travels as data on the error arm of the union result,
// never up the call stack, but it still implements error so resolvers can
// hand one back through a regular error return.
type AuthError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NewAuthError builds an AuthError with the code's default message.
func NewAuthError(code ErrorCode) *AuthError {
	return &AuthError{Code: code, Message: code.Message()}
}

// NewAuthErrorf builds an AuthError with a formatted message.
func NewAuthErrorf(code ErrorCode, format string, args ...any) *AuthError {
	return &AuthError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match two AuthErrors by code alone.
func (e *AuthError) Is(target error) bool {
	var other *AuthError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// AsAuthError extracts an AuthError from an error chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can't be an empty string")

// ErrMismatchedHashAndPassword is returned on password comparison failure
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")
