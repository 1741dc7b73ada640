package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewUserNotFoundError(t *testing.T) {
	err := NewUserNotFoundError("u-1")

	assert.True(t, IsNotFound(err))
	assert.Equal(t, CodeUserNotFound, err.Code)
	assert.Equal(t, "u-1", err.Details["userId"])
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "NOT_FOUND: user not found", err.Error())
}

func TestWrap_PreservesAppError(t *testing.T) {
	base := NewDatabaseError("query", fmt.Errorf("timeout"))

	wrapped := Wrap(base, "load schedules")

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeDatabase, appErr.Type)
	assert.Contains(t, appErr.Message, "load schedules")
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrapf(fmt.Errorf("boom"), "page %d", 3)

	assert.True(t, IsType(wrapped, ErrorTypeInternal))
	assert.Contains(t, wrapped.Error(), "page 3")
}

func TestFieldErrors(t *testing.T) {
	fe := NewFieldErrors()
	assert.False(t, fe.HasErrors())
	assert.Nil(t, fe.ToAppError(CodeInvalidPreferences))

	fe.Add("highPriorities[0].rank", "must be unique")
	fe.Addf("lowPriorities", "category %q already listed", "work")

	require.True(t, fe.HasErrors())
	assert.Equal(t, []string{"highPriorities[0].rank", "lowPriorities"}, fe.Fields())

	appErr := fe.ToAppError(CodeInvalidPreferences)
	require.NotNil(t, appErr)
	assert.True(t, IsValidation(appErr))
	assert.Equal(t, CodeInvalidPreferences, appErr.Code)
	assert.Contains(t, appErr.Details, "fields")
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"not found", NewScheduleNotFoundError("s-1"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", NewValidationError("bad days"), http.StatusBadRequest, "VALIDATION"},
		{"external", NewExternalError("qdrant", fmt.Errorf("503")), http.StatusBadGateway, "EXTERNAL"},
		{"plain", fmt.Errorf("unexpected"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v2/schedules", nil)
			req.Header.Set("X-Request-ID", "req-1")
			rec := httptest.NewRecorder()

			handler.Handle(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestErrorHandler_FieldErrorsRenderAsValidation(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	fe := NewFieldErrors()
	fe.Add("highPriorities", "too many entries")

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodPut, "/api/v2/priorities", nil), fe)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeInvalidPreferences, body.Code)
}

func TestErrorHandler_MiddlewareRecoversPanic(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	panicky := handler.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("scoring exploded")
	}))

	rec := httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
