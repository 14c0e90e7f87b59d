package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/luanvuhlu/compmarket/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestWriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusCreated, Response{Data: map[string]string{"ok": "yes"}})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestWriteError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/products/x", nil)

	WriteError(w, r, apperrors.NotFound("product", "x"), testLogger())

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "x")
}

func TestWriteError_SentinelNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(w, r, fmt.Errorf("get product: %w", apperrors.ErrNotFound), testLogger())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(w, r, fmt.Errorf("boom"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	// Internal error details must not leak to clients.
	assert.NotContains(t, resp.Error.Message, "boom")
}

func TestParseUUID_Valid(t *testing.T) {
	w := httptest.NewRecorder()

	id, ok := ParseUUID(w, "6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	assert.True(t, ok)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", id.String())
}

func TestParseUUID_Invalid(t *testing.T) {
	w := httptest.NewRecorder()

	_, ok := ParseUUID(w, "not-a-uuid")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMETER", decode(t, w).Error.Code)
}
