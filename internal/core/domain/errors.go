package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form SL-<AREA>-<NNNN>. For 4xxx and 5xxx codes the first
// three digits are the HTTP status the transport layer reports.
type DomainError struct {
	Code    string // Error code (e.g., "SL-SESS-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Key Agreement Errors (KEY)
// ============================================================================

var (
	// ErrInvalidRemoteKey indicates the peer's public key could not be parsed
	// or does not lie on the agreed curve.
	ErrInvalidRemoteKey = NewDomainError("SL-KEY-4001", "invalid remote public key")

	// ErrHandshakeNotFound indicates no pending handshake exists for the
	// conversation on the initiating side.
	ErrHandshakeNotFound = NewDomainError("SL-KEY-4040", "pending handshake not found")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates the conversation has no live session state,
	// either because it never existed or because it expired.
	ErrSessionNotFound = NewDomainError("SL-SESS-4040", "session not found")

	// ErrSessionValidation indicates session data validation failed.
	ErrSessionValidation = NewDomainError("SL-SESS-4001", "session validation failed")

	// ErrSessionCorrupted indicates persisted session state failed to decode.
	ErrSessionCorrupted = NewDomainError("SL-SESS-5001", "session state corrupted")
)

// ============================================================================
// Sequence Errors (SEQ)
// ============================================================================

var (
	// ErrSequenceTooOld indicates the frame's sequence number lies below the
	// acceptance window.
	ErrSequenceTooOld = NewDomainError("SL-SEQ-4091", "sequence number too old")

	// ErrSequenceTooNew indicates the frame's sequence number lies above the
	// acceptance window.
	ErrSequenceTooNew = NewDomainError("SL-SEQ-4092", "sequence number too new")

	// ErrSequenceDuplicate indicates the sequence number was already accepted
	// inside the asynchronous window.
	ErrSequenceDuplicate = NewDomainError("SL-SEQ-4093", "duplicate sequence number in window")
)

// ============================================================================
// Transform Errors (XFRM)
// ============================================================================

var (
	// ErrTransform indicates the frame failed authentication or decoding.
	ErrTransform = NewDomainError("SL-XFRM-4220", "frame transform failed")

	// ErrFrameTooLarge indicates a payload above the configured frame limit.
	ErrFrameTooLarge = NewDomainError("SL-XFRM-4130", "frame too large")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SL-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("SL-SYS-5001", "storage error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("SL-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("SL-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("SL-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("SL-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("SL-ARG-1002", "missing required argument")
)

// IsSequenceViolation reports whether err is one of the sequence window
// rejections. The frame should be dropped; the session stays usable.
func IsSequenceViolation(err error) bool {
	return errors.Is(err, ErrSequenceTooOld) ||
		errors.Is(err, ErrSequenceTooNew) ||
		errors.Is(err, ErrSequenceDuplicate)
}

// IsResync reports whether the caller must run a new handshake before the
// conversation can continue.
func IsResync(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionCorrupted)
}

// IsDroppable reports whether err rejects a single frame without invalidating
// the session.
func IsDroppable(err error) bool {
	return IsSequenceViolation(err) || errors.Is(err, ErrTransform)
}
