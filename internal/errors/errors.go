// Package errors provides custom error types for the voxchat client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrRecognitionUnavailable = errors.New("speech recognition is not available")
	ErrSynthesisUnavailable   = errors.New("speech synthesis is not available")
	ErrInvalidResponse        = errors.New("invalid response format")
	ErrNoContent              = errors.New("no content in response")
)

// Capability names used by CapabilityError
const (
	CapabilityRecognition = "recognition"
	CapabilitySynthesis   = "synthesis"
)

// CapabilityError indicates that the host platform does not provide a
// required speech capability. It is surfaced to the user as an alert and
// never mutates session state.
type CapabilityError struct {
	Capability string // "recognition" or "synthesis"
	Message    string
}

func (e *CapabilityError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("speech %s is not available on this system", e.Capability)
	}
	return fmt.Sprintf("speech %s is not available: %s", e.Capability, e.Message)
}

// Is allows comparison with the capability sentinel errors
func (e *CapabilityError) Is(target error) bool {
	if target == ErrRecognitionUnavailable {
		return e.Capability == CapabilityRecognition
	}
	if target == ErrSynthesisUnavailable {
		return e.Capability == CapabilitySynthesis
	}
	_, ok := target.(*CapabilityError)
	return ok
}

// NewCapabilityError creates a new CapabilityError
func NewCapabilityError(capability, message string) *CapabilityError {
	return &CapabilityError{Capability: capability, Message: message}
}

// APIError represents a non-2xx response from the inference endpoint
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError retaining the response body
// for diagnostics
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// NetworkError represents a transport-level failure before any response
// was received
type NetworkError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s at %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(op, endpoint string, err error) *NetworkError {
	return &NetworkError{Op: op, Endpoint: endpoint, Err: err}
}

// ParseError represents an unparseable or malformed response body
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with the ErrInvalidResponse sentinel
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// RecognitionError represents a runtime failure of an active recognition
// session. It forces listening off but never appends a message.
type RecognitionError struct {
	Message string
	Err     error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognition error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("recognition error: %s", e.Message)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// NewRecognitionError creates a new RecognitionError
func NewRecognitionError(message string, err error) *RecognitionError {
	return &RecognitionError{Message: message, Err: err}
}

// SynthesisError represents a runtime failure of speech output
type SynthesisError struct {
	Message string
	Err     error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("synthesis error: %s", e.Message)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// NewSynthesisError creates a new SynthesisError
func NewSynthesisError(message string, err error) *SynthesisError {
	return &SynthesisError{Message: message, Err: err}
}
