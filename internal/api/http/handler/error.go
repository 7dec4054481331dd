package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/surrlabs/surr/internal/model"
)

// writeError maps domain errors to HTTP statuses. Every authentication
// failure collapses into the same 401 body so the response never
// distinguishes bad password, unknown user, or a revoked token.
func (h *Auth) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "invalid credentials"})
	case errors.Is(err, model.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, messageResponse{Message: "username already taken"})
	case errors.Is(err, model.ErrInvalidUsername), errors.Is(err, model.ErrInvalidPassword):
		writeJSON(w, http.StatusUnprocessableEntity, messageResponse{Message: err.Error()})
	case errors.Is(err, model.ErrRaceExhausted):
		writeJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "service unavailable"})
	default:
		h.logger.Error("request failed",
			"path", r.URL.Path,
			"error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
