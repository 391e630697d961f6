package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAPIError_ReusesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DefaultRequestIDHeader, "req-1")
	rec := httptest.NewRecorder()

	WriteAPIError(rec, req, http.StatusConflict, "PERSON_ID_CONFLICT", "taken")

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "PERSON_ID_CONFLICT", env.Code)
	require.Equal(t, "taken", env.Message)
	require.Equal(t, "req-1", env.Meta["request_id"])
}

func TestWriteAPIError_GeneratesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAPIError(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusBadRequest, "BAD", "bad")

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotEmpty(t, env.Meta["request_id"])
	require.Equal(t, env.Meta["request_id"], rec.Header().Get(DefaultRequestIDHeader))
}

func TestWriteJSON_NilPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusNoContent, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())
}
