package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"

	// Session lifecycle codes. These are surfaced verbatim to protocol clients,
	// so the values are part of the wire contract and must not change.
	CodeInvalidClientInfo      Code = "INVALID_CLIENT_INFO"
	CodeInvalidCapabilities    Code = "INVALID_CAPABILITIES"
	CodeInvalidConnectionType  Code = "INVALID_CONNECTION_TYPE"
	CodeMaxSessionsExceeded    Code = "MAX_SESSIONS_EXCEEDED"
	CodeCredentialSessionLimit Code = "CREDENTIAL_SESSION_LIMIT"
	CodeSessionExpired         Code = "SESSION_EXPIRED"
	CodeSessionInvalid         Code = "SESSION_INVALID"
)

// Kind groups codes into the taxonomy callers act on.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindLimitExceeded Kind = "limit_exceeded"
	KindNotFound      Kind = "not_found"
	KindExpired       Kind = "expired"
	KindSystem        Kind = "system"
)

// KindOf classifies a code. Unknown codes are treated as system failures.
func KindOf(code Code) Kind {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation,
		CodeInvalidClientInfo, CodeInvalidCapabilities, CodeInvalidConnectionType:
		return KindValidation
	case CodeMaxSessionsExceeded, CodeCredentialSessionLimit:
		return KindLimitExceeded
	case CodeNotFound, CodeSessionInvalid:
		return KindNotFound
	case CodeSessionExpired:
		return KindExpired
	default:
		return KindSystem
	}
}

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of a domain error, or CodeInternal for anything else.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
