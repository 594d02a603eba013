// Package server is the HTTP surface: a chi router over the khuwani
// service, the auth gate, and cookie sessions. Wire DTOs and the error
// envelope live here; the domain packages stay transport-free.
//
// The public participant routes are CORS-wrapped so the share link works
// from any page; the organizer routes sit behind cross-origin request
// protection instead, since they are cookie-authenticated.
package server

import (
	"encoding/json"
	"net/http"

	"filippo.io/csrf"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/khuwani/internal/auth"
	"github.com/wolfeidau/khuwani/internal/httpx"
	"github.com/wolfeidau/khuwani/internal/khuwani"
	"github.com/wolfeidau/khuwani/internal/logger"
)

// maxBodyBytes caps request bodies; every payload here is a small JSON
// document.
const maxBodyBytes = 16 << 10

// Config carries the HTTP-surface knobs.
type Config struct {
	// AllowedOrigins restricts CORS on the public participant routes.
	// Empty means any origin, which suits a link meant to be shared.
	AllowedOrigins []string
}

// Server binds the domain services to HTTP handlers.
type Server struct {
	cfg      Config
	service  *khuwani.Service
	gate     *auth.Gate
	sessions *auth.Sessions
}

// NewServer creates the HTTP surface over the given domain services.
func NewServer(cfg Config, service *khuwani.Service, gate *auth.Gate, sessions *auth.Sessions) *Server {
	return &Server{
		cfg:      cfg,
		service:  service,
		gate:     gate,
		sessions: sessions,
	}
}

// Handler assembles the full middleware stack and routes.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	publicCORS := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})

	// Participant routes: anonymous, shareable, CORS-open.
	r.Group(func(r chi.Router) {
		r.Use(publicCORS.Handler)

		r.Get("/api/k/{slug}", s.handleParticipantView)
		r.Post("/api/k/{slug}/claims", s.handleClaim)
		r.Post("/api/k/{slug}/release", s.handleRelease)
	})

	// Organizer routes: cookie-authenticated, so cross-origin requests are
	// rejected rather than allowed.
	crossOrigin := csrf.New()
	r.Group(func(r chi.Router) {
		r.Use(crossOrigin.Handler)

		r.Post("/api/register", s.handleRegister)
		r.Post("/api/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.sessions.RequireOrganizer)

			r.Post("/api/logout", s.handleLogout)
			r.Get("/api/me", s.handleMe)

			r.Post("/api/khuwanies", s.handleCreateKhuwani)
			r.Get("/api/khuwanies", s.handleListKhuwanies)
			r.Get("/api/khuwanies/{id}", s.handleKhuwaniDetail)
			r.Post("/api/khuwanies/{id}/quran", s.handleAddQuranInstance)
			r.Post("/api/khuwanies/{id}/reset", s.handleResetClaims)
			r.Delete("/api/khuwanies/{id}", s.handleDeleteKhuwani)
		})
	})

	var h http.Handler = r
	h = httpx.ClientIPMiddleware()(h)
	h = logger.RequestLogger(log)(h)
	h = gzhttp.GzipHandler(h)

	return h
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON parses the request body into dst, rejecting oversized and
// malformed payloads. A false return means the error response has already
// been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "request body must be valid JSON")
		return false
	}
	return true
}
