package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func TestNormalize(t *testing.T) {
	t.Run("standard error passes through", func(t *testing.T) {
		orig := NewSessionNotFoundError("abc")
		assert.Same(t, orig, Normalize(orig))
	})

	t.Run("wrapped standard error is found", func(t *testing.T) {
		orig := NewStepInvalidError("personal")
		wrapped := fmt.Errorf("next: %w", orig)
		assert.Same(t, orig, Normalize(wrapped))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := Normalize(stderrors.New("boom"))
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.Equal(t, "boom", got.Details)
	})
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewSubmissionFailedError(cause)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsCode(err, ErrCodeSubmissionFailed))
	assert.False(t, IsCode(err, ErrCodeInternal))
}

func TestNewForwardFailedError(t *testing.T) {
	cause := stderrors.New("webhook returned 500")
	err := NewForwardFailedError("message", cause)
	assert.Equal(t, ErrCodeSubmissionFailed, err.Code)
	assert.Equal(t, "Failed to send your message. Please try again.", err.Message)
	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeFileTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeFileTypeNotSupported, http.StatusUnsupportedMediaType},
		{ErrCodeSessionNotFound, http.StatusNotFound},
		{ErrCodeSubmissionInFlight, http.StatusConflict},
		{ErrCodeSessionConflict, http.StatusConflict},
		{ErrCodeSubmissionFailed, http.StatusBadGateway},
		{ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "UPLOAD", GetErrorCategory(ErrCodeFileTooLarge))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSessionClosed))
	assert.Equal(t, "SUBMISSION", GetErrorCategory(ErrCodeWebhookTimeout))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseInsertFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestErrorHandler_WriteHTTP(t *testing.T) {
	t.Run("client error keeps details and warns", func(t *testing.T) {
		log := &recordingLogger{}
		h := NewErrorHandler(log)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/applications/x/next", nil)

		h.WriteHTTP(w, r, NewStepInvalidError("personal"))

		assert.Equal(t, http.StatusConflict, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, ErrCodeStepInvalid, body.Code)
		assert.Equal(t, "step: personal", body.Details)
		assert.Len(t, log.warns, 1)
		assert.Empty(t, log.errors)
	})

	t.Run("submission failure hides cause", func(t *testing.T) {
		log := &recordingLogger{}
		h := NewErrorHandler(log)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/applications/x/submit", nil)

		h.WriteHTTP(w, r, NewSubmissionFailedError(stderrors.New("webhook returned 500")))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Failed to submit application. Please try again.", body.Error)
		assert.Empty(t, body.Details)
		assert.Len(t, log.errors, 1)
	})
}
