package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput,
		ErrInternal, ErrConflict, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}

	assert.Contains(t, appErr.Error(), "INTERNAL_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "db connection lost")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "gone"}
	assert.Equal(t, "NOT_FOUND: gone", appErr.Error())
}

func TestNotFound_UnwrapsToSentinel(t *testing.T) {
	err := NotFound("product", "prod-1")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "prod-1")
}

func TestAlreadyExists_UnwrapsToSentinel(t *testing.T) {
	err := AlreadyExists("product", "sku", "LAP-001")

	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Contains(t, err.Message, `"LAP-001"`)
}

func TestWrap_PreservesSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "fetch product")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "fetch product")
}

// --- HTTPStatus mapping ---

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"conflict", ErrConflict, http.StatusConflict},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"service unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("ctx: %w", ErrNotFound), http.StatusNotFound},
		{"app error wins", &AppError{Status: http.StatusTeapot}, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
