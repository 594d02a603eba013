package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

const organizerContextKey contextKey = "organizer_id"

// OrganizerFromContext returns the authenticated organizer ID placed on the
// context by RequireOrganizer. The second return is false on routes not
// behind the middleware.
func OrganizerFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(organizerContextKey).(uuid.UUID)
	return id, ok
}

// ContextWithOrganizer returns a context carrying the organizer ID, used by
// tests to exercise handlers without a full session round trip.
func ContextWithOrganizer(ctx context.Context, organizerID uuid.UUID) context.Context {
	return context.WithValue(ctx, organizerContextKey, organizerID)
}

// RequireOrganizer rejects requests without a valid session with a 401 JSON
// envelope and otherwise places the organizer ID on the request context.
func (s *Sessions) RequireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		organizerID, err := s.Organizer(r.Context(), r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				log.Error().Err(err).Msg("Session lookup failed")
				writeAuthError(w, http.StatusInternalServerError, "internal", "something went wrong")
				return
			}
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithOrganizer(r.Context(), organizerID)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
