package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx response. Error() is the raw
// response body when the server sent one, otherwise "Error <status>".
type APIError struct {
	StatusCode int
	Body       string
	// Detail is the FastAPI "detail" field when the body is JSON.
	Detail    string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("Error %d", e.StatusCode)
}

// Friendly returns the detail message when present, else Error().
func (e *APIError) Friendly() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error()
}

func newAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body), RequestID: requestID}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		switch d := raw["detail"].(type) {
		case string:
			apiErr.Detail = d
		case []any:
			// validation errors: list of {loc, msg, type}
			msgs := make([]string, 0, len(d))
			for _, item := range d {
				if m, ok := item.(map[string]any); ok {
					if s, ok := m["msg"].(string); ok {
						msgs = append(msgs, s)
					}
				}
			}
			apiErr.Detail = strings.Join(msgs, "; ")
		}
	}
	return apiErr
}

// IsUnauthorized reports whether err is a 401/403 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// UnreachableError indicates the backend could not be contacted at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("backend unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
