package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped coded error", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeLocked, "grunnlaget er låst"))
		assert.True(t, HasCode(err, CodeLocked))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("wrap keeps cause reachable", func(t *testing.T) {
		cause := errors.New("db down")
		err := Wrap(cause, CodeUnavailable, "registry lookup failed")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, CodeUnavailable, CodeOf(err))
		assert.Equal(t, "registry lookup failed: db down", err.Error())
	})
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeLocked, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInvariantViolation, http.StatusUnprocessableEntity},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
