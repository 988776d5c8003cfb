package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth(t *testing.T) {
	m := NewManager(testLogger())
	m.Register(&stubChecker{name: "good"})
	h := NewHandler(m)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusOK, resp.Status)
	assert.Contains(t, resp.Checks, "good")
	assert.NotEmpty(t, resp.Version)
}

func TestHandleHealth_Down(t *testing.T) {
	m := NewManager(testLogger())
	m.Register(&stubChecker{name: "bad", err: fmt.Errorf("broken")})
	h := NewHandler(m)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleReady(t *testing.T) {
	m := NewManager(testLogger())
	m.Register(&stubChecker{name: "good"})
	h := NewHandler(m)

	// No checks have run yet, so readiness reports down.
	rec := httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	m.RunChecks(context.Background())

	rec = httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleLive(t *testing.T) {
	h := NewHandler(NewManager(testLogger()))

	rec := httptest.NewRecorder()
	h.HandleLive(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}
