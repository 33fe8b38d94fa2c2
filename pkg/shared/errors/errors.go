package errors

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned when a credential bag lacks a username or secret.
var ErrInvalidCredentials = errors.New("invalid credentials")

// RawContentPrefix precedes the response body when an error envelope carries no message.
const RawContentPrefix = "No message found, raw content:"

// APIError is returned when the Bitbucket API answers with a non-successful response.
type APIError struct {
	Message    string
	StatusCode int    // zero when the transport does not expose a status code
	Raw        string // raw response body, kept for diagnostics
}

// Error implements the error interface, returning the message verbatim.
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates an APIError from a message, a status code and the raw body.
func NewAPIError(message string, statusCode int, raw []byte) *APIError {
	return &APIError{
		Message:    message,
		StatusCode: statusCode,
		Raw:        string(raw),
	}
}

// NotImplementedError marks adapter operations that exist in the interface but have no implementation.
type NotImplementedError struct {
	MethodName  string
	AdapterName string
}

// Error implements the error interface for NotImplementedError
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %q is not implemented for %q", e.MethodName, e.AdapterName)
}

// NewNotImplementedError creates a NotImplementedError.
func NewNotImplementedError(methodName, adapterName string) error {
	return &NotImplementedError{
		MethodName:  methodName,
		AdapterName: adapterName,
	}
}

// UnsupportedError reports a feature the platform itself does not offer.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("Bitbucket doesn't support %s", e.Feature)
}

// NewUnsupportedError creates an UnsupportedError for a feature.
func NewUnsupportedError(feature string) error {
	return &UnsupportedError{Feature: feature}
}

// CommandError represents an error that occurred during command execution, carrying the exit code.
type CommandError struct {
	ExitCode    int
	CommonError string
	Err         error
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError with the given exit code.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Err:         err,
	}
}
