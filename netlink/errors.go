package netlink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConnection indicates a transport-level failure, including
	// "not connected" and "disconnected while waiting for acknowledgement"
	ErrTypeConnection ErrorType = iota
	// ErrTypeAuthentication indicates a credential rejection. Terminal for
	// auto-reconnect: the supervisor stops permanently on this type.
	ErrTypeAuthentication
	// ErrTypeTimeout indicates a connect or command exceeded its deadline
	ErrTypeTimeout
	// ErrTypeCommand indicates the device explicitly rejected a command;
	// the error carries the server-supplied message
	ErrTypeCommand
	// ErrTypeData indicates a parsing or validation error (malformed JSON,
	// out-of-range field values)
	ErrTypeData
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeAuthentication:
		return "Authentication Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeCommand:
		return "Command Error"
	case ErrTypeData:
		return "Data Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents an error that occurred while talking to a Netlink device
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	Command    string    // Command name (for command errors)
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Command != "" {
		msg = fmt.Sprintf("%s (command: %s)", msg, e.Command)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newConnectionError(message string, err error) *Error {
	return &Error{Type: ErrTypeConnection, Message: message, Err: err}
}

func newAuthenticationError(message string, err error) *Error {
	return &Error{Type: ErrTypeAuthentication, Message: message, Err: err}
}

func newTimeoutError(message string, err error) *Error {
	return &Error{Type: ErrTypeTimeout, Message: message, Err: err}
}

func newCommandError(message, command string) *Error {
	return &Error{Type: ErrTypeCommand, Message: message, Command: command}
}

func newDataError(message string, err error) *Error {
	return &Error{Type: ErrTypeData, Message: message, Err: err}
}

// classifyConnectError maps a raw transport connect failure onto the error
// taxonomy. Timeouts become ErrTypeTimeout; failures whose message contains
// an authentication indicator become ErrTypeAuthentication; anything else
// is wrapped as ErrTypeConnection carrying the original message.
func classifyConnectError(err error) *Error {
	var nlErr *Error
	if errors.As(err, &nlErr) {
		return nlErr
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return newTimeoutError("connection attempt timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError("connection attempt timed out", err)
	}

	if isAuthFailureMessage(err.Error()) {
		return newAuthenticationError("authentication failed", err)
	}

	return newConnectionError(fmt.Sprintf("failed to connect: %v", err), err)
}

// isAuthFailureMessage reports whether a connection failure message carries
// an authentication or authorization indicator (case-insensitive).
func isAuthFailureMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "authentication") ||
		strings.Contains(lower, "forbidden")
}

// IsConnectionError checks if an error is a transport-level connection error
func IsConnectionError(err error) bool {
	return errorTypeIs(err, ErrTypeConnection)
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	return errorTypeIs(err, ErrTypeAuthentication)
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	return errorTypeIs(err, ErrTypeTimeout)
}

// IsCommandError checks if an error is a device command rejection
func IsCommandError(err error) bool {
	return errorTypeIs(err, ErrTypeCommand)
}

// IsDataError checks if an error is a parsing or validation error
func IsDataError(err error) bool {
	return errorTypeIs(err, ErrTypeData)
}

func errorTypeIs(err error, et ErrorType) bool {
	var nlErr *Error
	if errors.As(err, &nlErr) {
		return nlErr.Type == et
	}
	return false
}
