package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents an organizer's authenticated session.
// The cookie carries only a signed token referencing SessionID; all session
// state lives server-side so sessions can be revoked.
type Session struct {
	SessionID   uuid.UUID // UUIDv7
	OrganizerID uuid.UUID

	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt time.Time

	// Optional audit metadata
	UserAgent string
	IPAddress string
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
