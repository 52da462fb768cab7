// Package apierr maps backend HTTP failures onto typed errors.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultMessage is used when neither the response nor the transport carries a message
const DefaultMessage = "Unknown error occurred"

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
)

// Error is a backend failure with its normalized status code
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

// Unwrap exposes the sentinel for Code so callers can use errors.Is
func (e *Error) Unwrap() error {
	return sentinel(e.Code)
}

func sentinel(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrInternal
	}
}

// normalize collapses unknown status codes to 500
func normalize(status int) int {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError:
		return status
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus builds an Error for status. An empty message becomes DefaultMessage.
func FromStatus(status int, message string) *Error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultMessage
	}
	return &Error{Code: normalize(status), Message: message}
}

// FromResponse builds an Error from a non-2xx response body.
// The JSON "message" field wins, then fallback, then DefaultMessage.
func FromResponse(status int, body []byte, fallback string) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return FromStatus(status, payload.Message)
	}
	return FromStatus(status, fallback)
}

// FromTransport wraps a request that never produced a response
func FromTransport(err error) *Error {
	if err == nil {
		return FromStatus(http.StatusInternalServerError, "")
	}
	return FromStatus(http.StatusInternalServerError, err.Error())
}

// Code extracts the status code of err, or 500 when err is not an *Error
func Code(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return http.StatusInternalServerError
}

// Message returns a user-facing description of err
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultMessage
}
