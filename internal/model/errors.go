package model

import "net/http"

type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "VALIDATION_ERROR"
	ErrorTypeConflict           ErrorType = "CONFLICT"
	ErrorTypeInvalidCredentials ErrorType = "INVALID_CREDENTIALS"
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeExpired            ErrorType = "EXPIRED"
	ErrorTypeInvalidOtp         ErrorType = "INVALID_OTP"
	ErrorTypeInvalidToken       ErrorType = "INVALID_TOKEN"
	ErrorTypeMismatch           ErrorType = "MISMATCH"
	ErrorTypeUnauthorized       ErrorType = "UNAUTHORIZED"
	ErrorTypeAccountSuspended   ErrorType = "ACCOUNT_SUSPENDED"
	ErrorTypeEmailNotVerified   ErrorType = "EMAIL_NOT_VERIFIED"
	ErrorTypeTooManyAttempts    ErrorType = "TOO_MANY_ATTEMPTS"
	ErrorTypeRateLimited        ErrorType = "RATE_LIMITED"
	ErrorTypeServer             ErrorType = "SERVER_ERROR"
)

// StatusCode is the HTTP status a failure of this type is rendered with.
func (e ErrorType) StatusCode() int {
	switch e {
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeAccountSuspended, ErrorTypeEmailNotVerified:
		return http.StatusForbidden
	case ErrorTypeTooManyAttempts, ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeServer:
		return http.StatusInternalServerError
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
