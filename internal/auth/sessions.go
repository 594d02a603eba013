package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

const sessionCookieName = "_session"

// ErrNoSession is returned when a request carries no valid session: cookie
// missing, token invalid, or the server-side session row gone or expired.
var ErrNoSession = errors.New("no valid session")

// Sessions issues and validates organizer login sessions. The cookie holds
// an HS256 JWT whose jti references a server-side session row; the row is
// the authority for expiry and revocation, the token only for integrity.
type Sessions struct {
	sessions store.SessionStore
	secret   []byte
	ttl      time.Duration
	secure   bool
}

// NewSessions creates a session manager. The signing secret must be at
// least 32 bytes. secure controls the cookie's Secure flag (off for plain
// HTTP development).
func NewSessions(sessions store.SessionStore, secret []byte, ttl time.Duration, secure bool) (*Sessions, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}

	return &Sessions{
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		secure:   secure,
	}, nil
}

// Issue creates a server-side session for the organizer and sets the
// session cookie on the response.
func (s *Sessions) Issue(ctx context.Context, w http.ResponseWriter, organizerID uuid.UUID, userAgent, ipAddress string) (*models.Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		SessionID:   id,
		OrganizerID: organizerID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		LastUsedAt:  now,
		UserAgent:   userAgent,
		IPAddress:   ipAddress,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   organizerID.String(),
		ID:        session.SessionID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Debug().
		Str("session_id", session.SessionID.String()).
		Str("organizer_id", organizerID.String()).
		Msg("Issued session")

	return session, nil
}

// Organizer resolves the request's session cookie to an organizer ID. The
// token signature is checked first, then the server-side row is loaded and
// touched; a revoked or expired row fails even if the token itself is
// still within its lifetime.
func (s *Sessions) Organizer(ctx context.Context, r *http.Request) (uuid.UUID, error) {
	sessionID, organizerID, err := s.parseCookie(r)
	if err != nil {
		return uuid.Nil, err
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return uuid.Nil, ErrNoSession
		}
		return uuid.Nil, fmt.Errorf("failed to load session: %w", err)
	}

	// The token's subject must match the row it points at.
	if session.OrganizerID != organizerID {
		return uuid.Nil, ErrNoSession
	}

	if err := s.sessions.Touch(ctx, sessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		log.Warn().Err(err).Msg("Failed to touch session")
	}

	return session.OrganizerID, nil
}

// Revoke deletes the request's session row and clears the cookie (logout).
// Safe to call without a valid session.
func (s *Sessions) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sessionID, _, err := s.parseCookie(r)
	if err == nil {
		if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	s.clearCookie(w)
	return nil
}

// RevokeAll deletes every session for an organizer (logout everywhere) and
// returns how many were removed. The caller's own cookie is cleared too.
func (s *Sessions) RevokeAll(ctx context.Context, w http.ResponseWriter, organizerID uuid.UUID) (int, error) {
	count, err := s.sessions.DeleteByOrganizer(ctx, organizerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	s.clearCookie(w)
	return count, nil
}

func (s *Sessions) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// parseCookie verifies the cookie's JWT and extracts (session id,
// organizer id). Storage is not consulted here.
func (s *Sessions) parseCookie(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrNoSession
	}

	parsed, err := jwt.ParseWithClaims(cookie.Value, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		log.Debug().Err(err).Msg("Session token parse error")
		return uuid.Nil, uuid.Nil, ErrNoSession
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, uuid.Nil, ErrNoSession
	}

	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrNoSession
	}

	organizerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrNoSession
	}

	return sessionID, organizerID, nil
}
