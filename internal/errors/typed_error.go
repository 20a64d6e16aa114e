package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/abisalde/storefront-auth/internal/model"
)

type TypedError interface {
	error
	ErrorType() model.ErrorType
	StatusCode() int
}

type typedError struct {
	message   string
	errorType model.ErrorType
	cause     error
}

func (e *typedError) Error() string              { return e.message }
func (e *typedError) ErrorType() model.ErrorType { return e.errorType }
func (e *typedError) StatusCode() int            { return e.errorType.StatusCode() }

func (e *typedError) Unwrap() error {
	return e.cause
}

func NewTypedError(message string, code model.ErrorType) TypedError {
	return &typedError{message: message, errorType: code}
}

func InternalServerError(cause error, format string, args ...any) TypedError {
	return &typedError{
		message:   "Something went wrong! Please try again",
		errorType: model.ErrorTypeServer,
		cause:     fmt.Errorf(format+": %w", append(args, cause)...),
	}
}

func Validation(message string) TypedError {
	return NewTypedError(message, model.ErrorTypeValidation)
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeServer for
// anything untyped.
func TypeOf(err error) model.ErrorType {
	var typed TypedError
	if stderrors.As(err, &typed) {
		return typed.ErrorType()
	}
	return model.ErrorTypeServer
}
