package client

import (
	"errors"
	"fmt"
)

var (
	ErrAuth     = errors.New("invalid API key")
	ErrNotFound = errors.New("not found")
	ErrAPI      = errors.New("provider error")
	ErrNetwork  = errors.New("network failure")
	ErrParse    = errors.New("parse response")
)

// AuthError is returned for HTTP 401: the credential is missing or invalid.
type AuthError struct {
	Body string
}

func (e *AuthError) Error() string { return "invalid API key (401)" }

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// NotFoundError is returned for HTTP 404: no matching location or data.
type NotFoundError struct {
	Body string
}

func (e *NotFoundError) Error() string { return "not found (404)" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// APIError is returned for any other non-2xx status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// NetworkError is returned when the transport fails (DNS, refused, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("http request failed: %v", e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ParseError is returned when a 2xx body cannot be decoded or lacks a field
// downstream code requires.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse response: %s: %v", e.Reason, e.Err)
	}
	return "parse response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
