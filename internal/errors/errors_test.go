package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		errType  ErrorType
		expected string
	}{
		{ErrorTypeUnknown, "unknown"},
		{ErrorTypeValidation, "validation"},
		{ErrorTypeConfig, "config"},
		{ErrorTypeConnection, "connection"},
		{ErrorTypeAuth, "auth"},
		{ErrorTypeProtocol, "protocol"},
		{ErrorTypeDocument, "document"},
		{ErrorTypeInternal, "internal"},
		{ErrorType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.errType.String())
		})
	}
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "simple message",
			err:      &Error{Message: "test error"},
			expected: "test error",
		},
		{
			name:     "with code",
			err:      &Error{Code: "test_code", Message: "test error"},
			expected: "[test_code] test error",
		},
		{
			name:     "with path",
			err:      &Error{Path: "file:///a.yaml", Message: "test error"},
			expected: "file:///a.yaml: test error",
		},
		{
			name:     "with cause",
			err:      &Error{Message: "test error", Cause: fmt.Errorf("underlying")},
			expected: "test error: underlying",
		},
		{
			name:     "with code, path and cause",
			err:      &Error{Code: "c", Path: "p", Message: "m", Cause: fmt.Errorf("u")},
			expected: "[c] p: m: u",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_UnwrapAndIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	err := ErrConnect("ws://ha.local/api/websocket", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, Create(CodeConnectFailed))
	assert.NotErrorIs(t, err, Create(CodeAuthFailed))
	assert.ErrorIs(t, err, New(ErrorTypeConnection, "any connection error"))

	wrapped := fmt.Errorf("completion: %w", err)
	assert.Equal(t, ErrorTypeConnection, GetType(wrapped))
	assert.Equal(t, CodeConnectFailed, GetCode(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeConnection))
}

func TestGetType_PlainError(t *testing.T) {
	t.Parallel()

	err := errors.New("plain")
	assert.Equal(t, ErrorTypeUnknown, GetType(err))
	assert.Empty(t, GetCode(err))
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	base := New(ErrorTypeProtocol, "base")
	base.Details["a"] = 1

	derived := base.WithDetails(map[string]any{"b": 2})

	assert.Equal(t, map[string]any{"a": 1}, base.Details)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, derived.Details)
}

func TestRegistry_Create(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Nil(t, r.Create("missing"))

	r.Register(ErrorDefinition{Code: "x", Type: ErrorTypeInternal, Message: "boom"})
	err := r.Create("x")
	require.NotNil(t, err)
	assert.Equal(t, "[x] boom", err.Error())
	assert.Equal(t, ErrorTypeInternal, err.Type)
}

func TestFactories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *Error
		wantType ErrorType
		wantCode string
	}{
		{"missing token", ErrMissingToken(), ErrorTypeConfig, CodeMissingToken},
		{"invalid url", ErrInvalidURL("::", errors.New("bad")), ErrorTypeConfig, CodeInvalidURL},
		{"invalid setting", ErrInvalidSetting("timeout", "must be positive"), ErrorTypeConfig, CodeInvalidSetting},
		{"empty property set", ErrEmptyPropertySet(), ErrorTypeValidation, CodeEmptyPropertySet},
		{"connection closed", ErrConnectionClosed(nil), ErrorTypeConnection, CodeConnectionClosed},
		{"message send", ErrMessageSend(errors.New("eof")), ErrorTypeConnection, CodeMessageSend},
		{"auth failed", ErrAuthFailed("Invalid access token"), ErrorTypeAuth, CodeAuthFailed},
		{"ha result", ErrHAResult("not_found", "Entity not found"), ErrorTypeProtocol, CodeHAResult},
		{"document parse", ErrDocumentParse("file:///x.yaml", errors.New("yaml")), ErrorTypeDocument, CodeDocumentParse},
		{"document limit", ErrDocumentLimit(100), ErrorTypeDocument, CodeDocumentLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}
}

func TestErrHAResult_KeepsHACode(t *testing.T) {
	t.Parallel()

	err := ErrHAResult("unauthorized", "Unauthorized")
	assert.Equal(t, "[ha_result] Unauthorized", err.Error())
	assert.Equal(t, "unauthorized", err.Details["ha_code"])

	noMessage := ErrHAResult("", "")
	assert.Equal(t, "[ha_result] Home Assistant returned an error", noMessage.Error())
}

func TestErrAuthFailed_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[auth_failed] authentication failed", ErrAuthFailed("").Error())
	assert.Equal(t, "[auth_failed] authentication failed: Invalid password", ErrAuthFailed("Invalid password").Error())
}
