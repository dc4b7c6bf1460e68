package ruckus

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

// Error kinds returned in APIError.Kind.
const (
	KindAuthentication ErrorKind = "authentication"
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not-found"
	KindRateLimit      ErrorKind = "rate-limit"
	KindServer         ErrorKind = "server"
	KindTransport      ErrorKind = "transport"
	KindAPI            ErrorKind = "api"
)

// APIError is returned for every failed request.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s error (HTTP %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Detail)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of err, or "" when err is not an *APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// kindForStatus maps a non-2xx HTTP status to an error kind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= http.StatusInternalServerError && status < 600:
		return KindServer
	default:
		return KindAPI
	}
}
