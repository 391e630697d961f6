package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const DefaultRequestIDHeader = "X-Request-ID"

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// EnsureRequestID returns the request id already assigned to r, or generates
// one and echoes it on the response.
func EnsureRequestID(w http.ResponseWriter, r *http.Request) string {
	if r == nil {
		return ""
	}
	if id := strings.TrimSpace(r.Header.Get(DefaultRequestIDHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(w.Header().Get(DefaultRequestIDHeader)); id != "" {
		return id
	}
	id := uuid.NewString()
	w.Header().Set(DefaultRequestIDHeader, id)
	return id
}

// WriteAPIError writes an ErrorEnvelope carrying the request id in its meta.
func WriteAPIError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	_ = WriteError(w, status, code, message, map[string]string{
		"request_id": EnsureRequestID(w, r),
	})
}
