package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/expertbridge/consult_platform/internal/service"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500; the caller logs the detail.
func writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: ve.Fields})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, service.ErrSlotUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "slot unavailable"})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "invalid state transition"})
	case errors.Is(err, service.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not authorized"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeBody parses the JSON request body. An empty body leaves dst at its
// zero value, so actions with optional payloads accept a bare POST.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return service.NewValidationError("body", "malformed JSON")
	}
	return nil
}
