package boxtribute

import (
	"errors"
	"fmt"
)

// GraphQL error extension codes reported by the backend.
const (
	CodeForbidden    = "FORBIDDEN"
	CodeBadUserInput = "BAD_USER_INPUT"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// APIError is an error reported by the backend inside a well-formed GraphQL
// response.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error %s", e.Code)
	}
	return fmt.Sprintf("backend error %s: %s", e.Code, e.Message)
}

// TransportError is a network or HTTP level failure; no GraphQL response was
// received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorCode classifies err for callers that only need the taxonomy bucket.
// Transport failures map to "NETWORK", API errors to their extension code.
func ErrorCode(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return "NETWORK"
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// IsForbidden reports whether err is a FORBIDDEN API error.
func IsForbidden(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == CodeForbidden
}

// IsBadUserInput reports whether err is a BAD_USER_INPUT API error.
func IsBadUserInput(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == CodeBadUserInput
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
