package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeState        Code = "STATE_CONFLICT"
	CodePayment      Code = "PAYMENT_ERROR"
	CodeNetwork      Code = "NETWORK_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code surfaces to the person at the terminal.
type Metadata struct {
	Retryable   bool
	UserMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:   false,
		UserMessage: "please correct the highlighted fields",
	},
	CodeUnauthorized: {
		Retryable:   false,
		UserMessage: "please sign in and try again",
	},
	CodeForbidden: {
		Retryable:   false,
		UserMessage: "this action is not available for your account",
	},
	CodeNotFound: {
		Retryable:   false,
		UserMessage: "the requested item could not be found",
	},
	CodeState: {
		Retryable:   false,
		UserMessage: "that step is not available right now",
	},
	CodePayment: {
		Retryable:   true,
		UserMessage: "the payment could not be completed, you can retry from the order summary",
	},
	CodeNetwork: {
		Retryable:   true,
		UserMessage: "the store is unreachable (it may be waking up), please retry in a moment",
	},
	CodeInternal: {
		Retryable:   true,
		UserMessage: "something went wrong, please retry",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// FromStatus maps a backend HTTP status onto a client error code.
func FromStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusUnprocessableEntity, status == http.StatusBadRequest:
		return CodeValidation
	case status == http.StatusPaymentRequired:
		return CodePayment
	case status >= http.StatusInternalServerError:
		return CodeNetwork
	default:
		return CodeInternal
	}
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// UserMessage returns the terminal-facing message for this error's code.
func (e *Error) UserMessage() string {
	return MetadataFor(e.Code()).UserMessage
}

// Retryable reports whether the caller should offer a manual retry.
func (e *Error) Retryable() bool {
	return MetadataFor(e.Code()).Retryable
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsRetryable reports whether err carries a retryable code. Unknown errors
// default to non-retryable.
func IsRetryable(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return typed.Retryable()
}

// HasCode reports whether err is a coded error with the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
