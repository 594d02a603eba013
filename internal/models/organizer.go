package models

import (
	"time"

	"github.com/google/uuid"
)

// Organizer represents an authenticated account that creates and manages
// khuwanies. Email is unique across the system and stored normalized
// (trimmed, lower-cased); PasswordHash is a bcrypt hash, never the secret.
type Organizer struct {
	OrganizerID  uuid.UUID // UUIDv7
	Email        string
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}
