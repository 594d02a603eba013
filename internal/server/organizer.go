package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/khuwani/internal/auth"
	"github.com/wolfeidau/khuwani/internal/httpx"
	"github.com/wolfeidau/khuwani/internal/store"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	organizer, err := s.gate.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if _, err := s.sessions.Issue(r.Context(), w, organizer.OrganizerID, r.UserAgent(), httpx.ClientIPFromContext(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrganizerResponse(organizer))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	organizer, err := s.gate.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if _, err := s.sessions.Issue(r.Context(), w, organizer.OrganizerID, r.UserAgent(), httpx.ClientIPFromContext(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrganizerResponse(organizer))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Revoke(r.Context(), w, r); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	organizerID := mustOrganizer(r)

	organizer, err := s.gate.Organizer(r.Context(), organizerID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizerNotFound) {
			// Account deleted out from under a live session.
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrganizerResponse(organizer))
}

func (s *Server) handleCreateKhuwani(w http.ResponseWriter, r *http.Request) {
	var req createKhuwaniRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	khuwani, err := s.service.Create(r.Context(), mustOrganizer(r), req.DedicateeName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toKhuwaniResponse(khuwani))
}

func (s *Server) handleListKhuwanies(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.OrganizerOverview(r.Context(), mustOrganizer(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]summaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, toSummaryResponse(summary))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleKhuwaniDetail(w http.ResponseWriter, r *http.Request) {
	khuwaniID, ok := khuwaniIDParam(w, r)
	if !ok {
		return
	}

	view, err := s.service.OrganizerView(r.Context(), khuwaniID, mustOrganizer(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toViewResponse(view))
}

func (s *Server) handleAddQuranInstance(w http.ResponseWriter, r *http.Request) {
	khuwaniID, ok := khuwaniIDParam(w, r)
	if !ok {
		return
	}

	organizerID := mustOrganizer(r)

	if err := s.service.AddQuranInstance(r.Context(), khuwaniID, organizerID); err != nil {
		writeDomainError(w, err)
		return
	}

	summary, err := s.service.Summary(r.Context(), khuwaniID, organizerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(*summary))
}

func (s *Server) handleResetClaims(w http.ResponseWriter, r *http.Request) {
	khuwaniID, ok := khuwaniIDParam(w, r)
	if !ok {
		return
	}

	count, err := s.service.ResetClaims(r.Context(), khuwaniID, mustOrganizer(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resetResponse{ClaimsRemoved: count})
}

func (s *Server) handleDeleteKhuwani(w http.ResponseWriter, r *http.Request) {
	khuwaniID, ok := khuwaniIDParam(w, r)
	if !ok {
		return
	}

	if err := s.service.Delete(r.Context(), khuwaniID, mustOrganizer(r)); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// mustOrganizer reads the organizer ID placed on the context by
// RequireOrganizer. Routes calling this are always behind the middleware,
// so a missing value is a wiring bug, not a client error.
func mustOrganizer(r *http.Request) uuid.UUID {
	organizerID, ok := auth.OrganizerFromContext(r.Context())
	if !ok {
		log.Panic().Str("path", r.URL.Path).Msg("organizer route without RequireOrganizer")
	}
	return organizerID
}

// khuwaniIDParam parses the {id} path parameter. A malformed id cannot
// reference any khuwani, so it reports not_found rather than a validation
// error.
func khuwaniIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "khuwani not found")
		return uuid.Nil, false
	}
	return id, true
}
