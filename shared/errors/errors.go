package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// RequestError is a failed call to the forum API: either a non-success status
// or a transport failure (StatusCode 0, Err set).
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Detail     string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is maps well-known statuses onto the package sentinels.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// ValidationError is a payload rejected by the server (or by client-side checks)
// with a message meant for the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error: %s", e.Message)
}

// StorageError is a failure to persist local preferences. Never fatal.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %q: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Detail returns the user-facing message carried by err, if any.
func Detail(err error) (string, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) && validationErr.Message != "" {
		return validationErr.Message, true
	}
	var requestErr *RequestError
	if errors.As(err, &requestErr) && requestErr.Detail != "" {
		return requestErr.Detail, true
	}
	return "", false
}

// DetailOr returns the user-facing message of err or fallback.
func DetailOr(err error, fallback string) string {
	if detail, ok := Detail(err); ok {
		return detail
	}
	return fallback
}
