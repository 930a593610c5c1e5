// Package apperr defines the error kinds shared by the generation gateway,
// the persistence services and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping and retry decisions.
type Kind string

const (
	KindConfiguration      Kind = "configuration"
	KindValidation         Kind = "validation"
	KindAPI                Kind = "api"
	KindServiceUnavailable Kind = "service_unavailable"
)

// Machine codes carried in API error bodies.
const (
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidAIJSON      = "INVALID_AI_JSON"
	CodeInvalidAIResponse  = "INVALID_AI_RESPONSE"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
)

// Error is a classified failure. Status is only meaningful for KindAPI and
// holds the upstream HTTP status.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// TypeName returns the name used when the error is recorded in error_logs.
func (e *Error) TypeName() string {
	switch e.Kind {
	case KindConfiguration:
		return "ConfigurationError"
	case KindValidation:
		return "ValidationError"
	case KindAPI:
		return "ApiError"
	case KindServiceUnavailable:
		return "ServiceUnavailableError"
	}
	return "Error"
}

// Retryable reports whether the same request may succeed if repeated unchanged.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindServiceUnavailable:
		return true
	case KindAPI:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// IsTimeout reports whether the error came from the request deadline rather
// than a transport failure.
func (e *Error) IsTimeout() bool {
	return e.Kind == KindServiceUnavailable && e.Code == CodeTimeout
}

// IsResponseShape reports whether a validation error concerns model output
// rather than caller input.
func (e *Error) IsResponseShape() bool {
	return e.Kind == KindValidation && (e.Code == CodeInvalidAIJSON || e.Code == CodeInvalidAIResponse)
}

// Configuration signals a missing secret or setting.
func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Code: CodeConfiguration, Message: message}
}

// Validation signals an input or response that violates a contract.
func Validation(code, message string, details any) *Error {
	if code == "" {
		code = CodeValidation
	}
	return &Error{Kind: KindValidation, Code: code, Message: message, Details: details}
}

// API wraps a non-success upstream status. 502, 503 and 504 are reported as
// service unavailable.
func API(status int, message string, details any) *Error {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &Error{
			Kind:    KindServiceUnavailable,
			Code:    CodeServiceUnavailable,
			Message: message,
			Status:  status,
			Details: details,
		}
	}
	return &Error{Kind: KindAPI, Code: CodeUpstream, Message: message, Status: status, Details: details}
}

// Unavailable signals a transient failure such as a refused connection.
func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindServiceUnavailable, Code: CodeServiceUnavailable, Message: message, Err: cause}
}

// Timeout signals that the request deadline expired.
func Timeout(message string) *Error {
	return &Error{Kind: KindServiceUnavailable, Code: CodeTimeout, Message: message}
}

// As extracts a classified error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps err to the status returned to API callers. Upstream 4xx
// responses become 500 since the caller cannot fix them by changing input.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		if e.IsResponseShape() {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindAPI:
		if e.Status >= http.StatusInternalServerError {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}
