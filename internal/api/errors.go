package api

import (
	"errors"
	"fmt"
)

// AuthError means the token is missing, expired or rejected (401/403).
// Callers must clear the session and send the user to login.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode == 0 {
		return "not signed in"
	}
	return fmt.Sprintf("authentication failed (status %d)", e.StatusCode)
}

// NetworkError means no response reached us from the server
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: unable to reach server: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx response, or a 2xx response whose body could not be decoded.
// Message is the server-supplied error text when there is one.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// ValidationError blocks an action locally; it never reaches the network
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsAuth reports whether err is, or wraps, an AuthError
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message returns the text to show the user for err. Server and validation
// messages are passed through verbatim; fallback is used for anything else.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Error()
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
