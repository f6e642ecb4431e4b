package empower

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (reset, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the controller refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeAuth indicates an authentication failure
	ErrTypeAuth
	// ErrTypeHTTP indicates an unexpected HTTP status
	ErrTypeHTTP
	// ErrTypeNotFound indicates the tenant, VBSP or UE does not exist
	ErrTypeNotFound
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeValidation indicates invalid arguments on our side
	ErrTypeValidation
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Class is the coarse bucket a polling loop acts on.
type Class int

const (
	// ClassUnknown is anything not produced by this package.
	ClassUnknown Class = iota
	// ClassTransient covers network failures and server-side errors. Stale
	// state is kept and the next cycle retries.
	ClassTransient
	// ClassMalformed covers bodies that do not decode into the expected
	// shape. The cycle's update is skipped and the next cycle retries.
	ClassMalformed
	// ClassRejected covers requests the controller refused (auth, 4xx).
	ClassRejected
)

// String returns the log name of the class.
func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient-network"
	case ClassMalformed:
		return "malformed-response"
	case ClassRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// APIError represents an error that occurred while talking to the controller
type APIError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Endpoint       string              // Request path (for context)
	Retryable      bool                // Whether an immediate retry may succeed
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Endpoint)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// Class buckets the error for the polling loops.
func (e *APIError) Class() Class {
	switch e.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return ClassTransient
	case ErrTypeHTTP:
		if e.StatusCode >= 500 {
			return ClassTransient
		}
		return ClassRejected
	case ErrTypeParse:
		return ClassMalformed
	case ErrTypeAuth, ErrTypeNotFound, ErrTypeValidation:
		return ClassRejected
	default:
		return ClassUnknown
	}
}

// ClassifyNetworkError analyzes a transport error and returns a typed APIError
func ClassifyNetworkError(err error, endpoint string) *APIError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &APIError{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Endpoint:       endpoint,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			Endpoint:       endpoint,
			Retryable:      false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &APIError{
				Type:           ErrTypeConnectionRefused,
				Message:        "Controller refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &APIError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &APIError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &APIError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Endpoint:       endpoint,
		Retryable:      true,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message, endpoint string, err error) *APIError {
	classified := ClassifyNetworkError(err, endpoint)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &APIError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Endpoint:  endpoint,
		Err:       err,
		Retryable: true,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(endpoint string) *APIError {
	return &APIError{
		Type:       ErrTypeAuth,
		Message:    "authentication failed (check credentials)",
		StatusCode: http.StatusUnauthorized,
		Endpoint:   endpoint,
	}
}

// NewNotFoundError creates an error for a missing tenant, VBSP or UE
func NewNotFoundError(endpoint string) *APIError {
	return &APIError{
		Type:       ErrTypeNotFound,
		Message:    "resource not found",
		StatusCode: http.StatusNotFound,
		Endpoint:   endpoint,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message, endpoint string) *APIError {
	return &APIError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a malformed-response error
func NewParseError(message, endpoint string, err error) *APIError {
	return &APIError{
		Type:     ErrTypeParse,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *APIError {
	return &APIError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Classify returns the polling class of err.
func Classify(err error) Class {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Class()
	}
	return ClassUnknown
}

// IsTransient reports whether err is a network failure or a 5xx.
func IsTransient(err error) bool {
	return Classify(err) == ClassTransient
}

// IsMalformed reports whether err is a response that failed to decode.
func IsMalformed(err error) bool {
	return Classify(err) == ClassMalformed
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS, etc.)
func IsNetworkError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeNetwork ||
			apiErr.Type == ErrTypeTimeout ||
			apiErr.Type == ErrTypeConnectionRefused ||
			apiErr.Type == ErrTypeDNS
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeAuth
}

// IsNotFound checks if an error is a 404 from the controller
func IsNotFound(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeNotFound
}

// IsRetryable checks if an error should be retried immediately
func IsRetryable(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// TroubleshootingHint returns user-facing advice for an error
func TroubleshootingHint(err error) []string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return []string{"An unexpected error occurred. Please try again."}
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return []string{
			"The controller did not respond in time",
			"Check that the controller is running and reachable",
			"Try a longer --timeout",
		}
	case ErrTypeConnectionRefused:
		return []string{
			"Nothing is listening at the controller address",
			"Check the --controller URL and port (EmPOWER defaults to 8888)",
			"Use 'rrcmon scan' to look for controllers on the local network",
		}
	case ErrTypeDNS:
		return []string{
			"Could not resolve the controller hostname",
			"Use the IP address instead of the hostname",
		}
	case ErrTypeAuth:
		return []string{
			"The controller rejected the credentials",
			"Set --username and RRCMON_PASSWORD",
		}
	case ErrTypeNotFound:
		return []string{
			"The tenant, VBSP or UE does not exist on this controller",
			"Use 'rrcmon tenants' to list tenant IDs",
		}
	case ErrTypeNetwork:
		switch apiErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return []string{"The controller host is not reachable", "Check routing to the controller"}
		case NetworkErrorNetworkUnreachable:
			return []string{"The controller network is not reachable", "Check your network connection"}
		default:
			return []string{"Network communication failed", "Check your network connection"}
		}
	case ErrTypeHTTP:
		if apiErr.StatusCode >= 500 {
			return []string{
				fmt.Sprintf("The controller returned HTTP %d", apiErr.StatusCode),
				"Check the controller log",
			}
		}
		return []string{fmt.Sprintf("The controller returned HTTP %d; check the request parameters", apiErr.StatusCode)}
	case ErrTypeParse:
		return []string{
			"The controller response could not be parsed",
			"Check that --controller points at an EmPOWER REST API",
		}
	default:
		return []string{apiErr.Message}
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return "Controller not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Controller refused connection"
	case ErrTypeDNS:
		return "Cannot resolve controller hostname"
	case ErrTypeAuth:
		return "Authentication failed - check credentials"
	case ErrTypeNotFound:
		return "Not found: " + strings.TrimPrefix(apiErr.Endpoint, "/api/v1")
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Controller error (HTTP %d)", apiErr.StatusCode)
	case ErrTypeParse:
		return "Malformed controller response"
	default:
		return apiErr.Message
	}
}
