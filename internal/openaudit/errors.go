package openaudit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindNone means the error did not come from this client.
	KindNone Kind = iota
	// KindNetwork covers transport failures before a status was received.
	KindNetwork
	// KindStatus covers responses outside the 2xx range.
	KindStatus
	// KindDecode covers bodies that do not match the expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Detail     string
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status, Body: body}
	var problem struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &problem); err == nil && len(problem.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(problem.Detail, &detail); err == nil {
			apiErr.Detail = detail
		} else {
			// FastAPI validation errors carry a list here.
			apiErr.Detail = string(problem.Detail)
		}
	}
	return apiErr
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = strings.TrimSpace(string(e.Body))
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("openaudit: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// NetworkError wraps transport failures.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("openaudit: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a response body that could not be decoded.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("openaudit: %s %s: decode response: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// KindOf reports which failure kind err belongs to.
func KindOf(err error) Kind {
	var apiErr *APIError
	var netErr *NetworkError
	var decErr *DecodeError
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &apiErr):
		return KindStatus
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &decErr):
		return KindDecode
	default:
		return KindNone
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
