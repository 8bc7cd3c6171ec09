package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("SL-TEST-1000", "test message"),
			expected: "[SL-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("SL-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[SL-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("SL-TEST-1000", "message 1")
	err2 := NewDomainError("SL-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("SL-TEST-1001", "message 1") // Different code

	// Same code should match
	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}

	// Different code should not match
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}

	// Should not match non-DomainError
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("SL-TEST-1000", "wrapper").WithCause(cause)

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Without cause
	errNoCause := NewDomainError("SL-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("SL-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	// Check original is unchanged
	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}

	// Check new error has details
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}

	// Check code and message are preserved
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
	if withDetails.Message != original.Message {
		t.Errorf("Message = %q, want %q", withDetails.Message, original.Message)
	}
}

func TestDomainError_WithCause(t *testing.T) {
	original := NewDomainError("SL-TEST-1000", "original message")
	cause := fmt.Errorf("root cause")
	withCause := original.WithCause(cause)

	// Check original is unchanged
	if original.Cause != nil {
		t.Error("WithCause should not modify original error")
	}

	// Check new error has cause
	if withCause.Cause != cause {
		t.Errorf("Cause = %v, want %v", withCause.Cause, cause)
	}

	// Check code and message are preserved
	if withCause.Code != original.Code {
		t.Errorf("Code = %q, want %q", withCause.Code, original.Code)
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrSessionNotFound

	if !IsDomainError(err, "SL-SESS-4040") {
		t.Error("IsDomainError should return true for matching code")
	}

	if IsDomainError(err, "SL-SESS-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}

	if IsDomainError(fmt.Errorf("regular error"), "SL-SESS-4040") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	// Test with wrapped error
	wrapped := fmt.Errorf("wrapped: %w", ErrSessionNotFound)
	if !IsDomainError(wrapped, "SL-SESS-4040") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "domain error",
			err:      ErrSessionNotFound,
			expected: "SL-SESS-4040",
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("wrapped: %w", ErrTransform),
			expected: "SL-XFRM-4220",
		},
		{
			name:     "regular error",
			err:      fmt.Errorf("regular error"),
			expected: "",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	// Verify all predefined errors have correct codes
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrInvalidRemoteKey, "SL-KEY-4001"},
		{ErrHandshakeNotFound, "SL-KEY-4040"},
		{ErrSessionNotFound, "SL-SESS-4040"},
		{ErrSessionValidation, "SL-SESS-4001"},
		{ErrSessionCorrupted, "SL-SESS-5001"},
		{ErrSequenceTooOld, "SL-SEQ-4091"},
		{ErrSequenceTooNew, "SL-SEQ-4092"},
		{ErrSequenceDuplicate, "SL-SEQ-4093"},
		{ErrTransform, "SL-XFRM-4220"},
		{ErrFrameTooLarge, "SL-XFRM-4130"},
		{ErrInternalServer, "SL-SYS-5000"},
		{ErrStorageError, "SL-SYS-5001"},
		{ErrServiceUnavailable, "SL-SYS-5030"},
		{ErrBadRequest, "SL-SYS-4000"},
		{ErrRateLimited, "SL-SYS-4290"},
		{ErrInvalidArgument, "SL-ARG-1001"},
		{ErrMissingArgument, "SL-ARG-1002"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	// Test chaining WithDetails and WithCause
	cause := fmt.Errorf("root cause")
	err := ErrSessionNotFound.
		WithDetails("conversation_id: conv-xxx").
		WithCause(cause)

	// Verify all properties are preserved
	if err.Code != "SL-SESS-4040" {
		t.Errorf("Code = %q, want %q", err.Code, "SL-SESS-4040")
	}
	if err.Details != "conversation_id: conv-xxx" {
		t.Errorf("Details = %q", err.Details)
	}
	if err.Cause != cause {
		t.Error("Cause should be preserved")
	}

	// Verify errors.Is still works
	if !errors.Is(err, ErrSessionNotFound) {
		t.Error("errors.Is should work after chaining")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		violation bool
		resync    bool
		droppable bool
	}{
		{"too old", ErrSequenceTooOld, true, false, true},
		{"too new", ErrSequenceTooNew.WithDetails("seq 9"), true, false, true},
		{"duplicate", fmt.Errorf("wrapped: %w", ErrSequenceDuplicate), true, false, true},
		{"transform", ErrTransform.WithCause(errors.New("tag mismatch")), false, false, true},
		{"not found", ErrSessionNotFound, false, true, false},
		{"corrupted", ErrSessionCorrupted, false, true, false},
		{"storage", ErrStorageError, false, false, false},
		{"plain", errors.New("boom"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSequenceViolation(tt.err); got != tt.violation {
				t.Errorf("IsSequenceViolation() = %v, want %v", got, tt.violation)
			}
			if got := IsResync(tt.err); got != tt.resync {
				t.Errorf("IsResync() = %v, want %v", got, tt.resync)
			}
			if got := IsDroppable(tt.err); got != tt.droppable {
				t.Errorf("IsDroppable() = %v, want %v", got, tt.droppable)
			}
		})
	}
}
