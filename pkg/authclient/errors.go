package authclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNoRefreshToken   = errors.New("authclient: no refresh token stored")
	ErrRefreshFailed    = errors.New("authclient: token refresh failed")
	ErrNotAuthenticated = errors.New("authclient: not authenticated")
)

// RequestError is a transport-level failure: the request never produced
// an HTTP response.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Detail carries the server message
// verbatim so callers can show it as is.
type APIError struct {
	StatusCode int
	Detail     string
	Body       []byte

	// cause is set when a 401 could not be recovered by a refresh.
	cause error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error %d", e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.cause != nil {
		msg += " (" + e.cause.Error() + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.cause }

func (e *APIError) Unauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Detail: detailFrom(status, body), Body: body}
}

// detailFrom pulls the message out of {"detail": ...} or {"message": ...}.
// Structured details (validation lists) are returned as raw JSON.
func detailFrom(status int, body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, raw := range []json.RawMessage{envelope.Detail, envelope.Message} {
			if len(raw) == 0 {
				continue
			}
			var s string
			if json.Unmarshal(raw, &s) == nil {
				return s
			}
			return string(raw)
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		return text
	}
	return http.StatusText(status)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
