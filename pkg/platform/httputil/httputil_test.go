package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "grunnlag/pkg/domain-errors"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteErrorMapsCodes(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{"locked", dErrors.New(dErrors.CodeLocked, "grunnlaget er låst"), http.StatusConflict, "grunnlag_laast", "grunnlaget er låst"},
		{"conflict", dErrors.New(dErrors.CodeConflict, "kilde er ikke låst"), http.StatusConflict, "conflict", "kilde er ikke låst"},
		{"not found", dErrors.New(dErrors.CodeNotFound, "ukjent behandling"), http.StatusNotFound, "not_found", "ukjent behandling"},
		{"invariant violation", dErrors.New(dErrors.CodeInvariantViolation, "roster mangler"), http.StatusUnprocessableEntity, "invariant_violation", "roster mangler"},
		{"upstream unavailable", dErrors.New(dErrors.CodeUnavailable, "registry unavailable"), http.StatusServiceUnavailable, "upstream_unavailable", "registry unavailable"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "registry timed out"), http.StatusGatewayTimeout, "timeout", "registry timed out"},
		{"validation", dErrors.New(dErrors.CodeValidation, "sakId is required"), http.StatusBadRequest, "validation_error", "sakId is required"},
		{"wrapped keeps outer code", dErrors.Wrap(errors.New("dial tcp"), dErrors.CodeUnavailable, "registry unavailable"), http.StatusServiceUnavailable, "upstream_unavailable", "registry unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeEnvelope(t, w)
			assert.Equal(t, tc.code, body["error"])
			assert.Equal(t, tc.description, body["error_description"])
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	for name, err := range map[string]error{
		"coded internal": dErrors.New(dErrors.CodeInternal, "db failed"),
		"uncoded":        errors.New("pq: connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, err)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeEnvelope(t, w)
			assert.Equal(t, "internal_error", body["error"])
			assert.NotContains(t, body, "error_description")
		})
	}
}

func TestWriteNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	WriteNoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}

type testRequest struct {
	SakID int64 `json:"sakId"`
}

func (r *testRequest) Validate() error {
	if r.SakID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "sakId is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sakId":42}`))

		req, ok := DecodeAndPrepare[testRequest](w, r, logger, context.Background(), "req-1")
		require.True(t, ok)
		assert.Equal(t, int64(42), req.SakID)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sakId":`))

		_, ok := DecodeAndPrepare[testRequest](w, r, logger, context.Background(), "req-2")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeEnvelope(t, w)["error"])
	})

	t.Run("validation failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sakId":0}`))

		_, ok := DecodeAndPrepare[testRequest](w, r, logger, context.Background(), "req-3")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "sakId is required", body["error_description"])
	})
}
