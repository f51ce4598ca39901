package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophdrive/internal/common"
)

// errorResponse is the error payload the web client expects: a message and
// the status code repeated in the body.
type errorResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message, ID: status})
}

// writeServiceError maps a service error to the wire contract. Domain
// failures (bad credentials, missing file, name conflicts) are 400 — the
// historical behavior clients rely on; storage failures are 500. The
// sentinel's own message is all that crosses the boundary.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorConflict),
		errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
