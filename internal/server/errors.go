package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/khuwani/internal/auth"
	"github.com/wolfeidau/khuwani/internal/khuwani"
	"github.com/wolfeidau/khuwani/internal/store"
)

// errorBody is the envelope every error response uses.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError maps domain and store errors onto the HTTP error
// envelope. Anything unrecognized is logged and reported as internal.
func writeDomainError(w http.ResponseWriter, err error) {
	var khuwaniVE *khuwani.ValidationError
	var authVE *auth.ValidationError

	switch {
	case errors.Is(err, store.ErrKhuwaniNotFound):
		writeError(w, http.StatusNotFound, "not_found", "khuwani not found")
	case errors.Is(err, store.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "that sipara has already been claimed")
	case errors.Is(err, khuwani.ErrInvalidSlot):
		writeError(w, http.StatusUnprocessableEntity, "invalid_slot", "quran or sipara number is out of range")
	case errors.Is(err, store.ErrOrganizerExists):
		writeError(w, http.StatusConflict, "email_taken", "an account with that email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
	case errors.As(err, &khuwaniVE):
		writeError(w, http.StatusBadRequest, "validation_failed", khuwaniVE.Error())
	case errors.As(err, &authVE):
		writeError(w, http.StatusBadRequest, "validation_failed", authVE.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal", "something went wrong")
	}
}
