package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleParticipantView is the poll target: the full board for one
// khuwani, resolved by its public slug.
func (s *Server) handleParticipantView(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toViewResponse(view))
}

// handleClaim attempts to take one (quran, sipara) slot. A lost race comes
// back as 409 slot_taken, which clients treat as "refresh and pick again".
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claim, err := s.service.Claim(r.Context(), chi.URLParam(r, "slug"), req.QuranNumber, req.SiparaNumber, req.ParticipantName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClaimResponse(claim))
}

// handleRelease frees the claim matching the exact (quran, sipara, name)
// triple. A miss is a 200 with released=false, not an error.
func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	released, err := s.service.Release(r.Context(), chi.URLParam(r, "slug"), req.QuranNumber, req.SiparaNumber, req.ParticipantName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, releaseResponse{Released: released})
}
