package nezha

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nezhatop/nezhatop/internal/config"
)

// ErrMissingConfiguration is returned when the dashboard host or credentials
// are not set. It is surfaced as a setup prompt and never retried.
var ErrMissingConfiguration = config.ErrMissingConfiguration

// AuthError reports a rejected or failed login.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed"
	}
	return "authentication failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure (DNS, TLS, timeout, reset).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeKind distinguishes how a response failed to parse.
type DecodeKind int

const (
	// DecodeCorrupted means the body was not valid JSON of the expected form.
	DecodeCorrupted DecodeKind = iota
	// DecodeMissingKey means a required key was absent, usually a backend
	// version mismatch rather than a transient failure.
	DecodeMissingKey
	// DecodeTypeMismatch means a value had the wrong JSON type.
	DecodeTypeMismatch
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeMissingKey:
		return "missingKey"
	case DecodeTypeMismatch:
		return "typeMismatch"
	default:
		return "corrupted"
	}
}

// DecodeError reports a response that could not be parsed.
type DecodeError struct {
	Kind   DecodeKind
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode response (" + e.Kind.String() + ")"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// BackendError carries the failure reason reported by the dashboard.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return e.Message
}

// InvalidResponseError reports a success envelope without the expected payload.
type InvalidResponseError struct {
	Description string
}

func (e *InvalidResponseError) Error() string {
	return "invalid response: " + e.Description
}

// UserMessage renders err for display. Decode details are not actionable for
// users and are replaced by a generic message; they are logged instead.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		authErr    *AuthError
		netErr     *NetworkError
		decodeErr  *DecodeError
		backendErr *BackendError
		invalidErr *InvalidResponseError
	)
	switch {
	case errors.Is(err, ErrMissingConfiguration):
		return "set up your dashboard"
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &decodeErr):
		return "unable to read response"
	case errors.As(err, &netErr):
		return netErr.Err.Error()
	case errors.As(err, &backendErr):
		return backendErr.Message
	case errors.As(err, &invalidErr):
		return invalidErr.Description
	default:
		return err.Error()
	}
}

// isAuthFailure reports whether a response means the credentials were rejected.
func isAuthFailure(status int, err error) bool {
	if status == 401 || status == 403 {
		return true
	}
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		return false
	}
	msg := strings.ToLower(backendErr.Message)
	for _, marker := range []string{"unauthorized", "invalid token", "token expired", "token is expired", "not logged in"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func backendStatusError(status int, statusText string) *BackendError {
	if statusText == "" {
		statusText = "unexpected response"
	}
	return &BackendError{StatusCode: status, Message: fmt.Sprintf("dashboard returned status %d: %s", status, statusText)}
}
