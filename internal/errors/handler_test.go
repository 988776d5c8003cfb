package errors

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewErrorHandler(log)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleError_AppError(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/playback/state", nil)
	req.Header.Set("X-Request-ID", "trace-1")

	h.HandleError(rec, req, NewInvalidAssetError("duration must be positive"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, ErrorTypeInvalidAsset, resp.Error.Type)
	assert.Equal(t, "duration must be positive", resp.Error.Message)
	assert.Equal(t, "trace-1", resp.TraceID)
}

func TestHandleError_PlainError(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	h.HandleError(rec, req, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, ErrorTypeInternal, resp.Error.Type)
}

func TestHandleNotFound(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/nope", nil)

	h.HandleNotFound(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, ErrorTypeNotFound, resp.Error.Type)
}

func TestMiddleware_RecoversPanic(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/panic", nil)

	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	}))
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, ErrorTypeInternal, resp.Error.Type)
}
