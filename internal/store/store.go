// Package store defines the storage contracts the khuwani service is built
// on. Two implementations exist: memory (development and unit tests) and
// postgres (deployment). Both honor the same atomicity contracts — in
// particular, claim creation is a single indivisible check-and-insert, so at
// most one of N concurrent attempts on the same slot ever succeeds.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/khuwani/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrOrganizerNotFound = errors.New("organizer not found")
	ErrOrganizerExists   = errors.New("organizer already exists")
	ErrKhuwaniNotFound   = errors.New("khuwani not found")
	ErrSlugExists        = errors.New("slug already exists")
	ErrSlotTaken         = errors.New("sipara slot already claimed")
	ErrClaimNotFound     = errors.New("claim not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
)

// OrganizerStore manages organizer accounts.
type OrganizerStore interface {
	// Create persists a new organizer. Returns ErrOrganizerExists if the
	// email is already registered.
	Create(ctx context.Context, organizer *models.Organizer) error

	// Get retrieves an organizer by ID.
	Get(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error)

	// GetByEmail retrieves an organizer by normalized email.
	GetByEmail(ctx context.Context, email string) (*models.Organizer, error)
}

// KhuwaniStore manages khuwani records.
type KhuwaniStore interface {
	// Create persists a new khuwani. Returns ErrSlugExists if the slug is
	// already in use — the storage uniqueness constraint is the final
	// authority, regardless of any pre-check the caller performed.
	Create(ctx context.Context, khuwani *models.Khuwani) error

	// Get retrieves a khuwani by ID.
	Get(ctx context.Context, khuwaniID uuid.UUID) (*models.Khuwani, error)

	// GetBySlug retrieves a khuwani by its public slug.
	GetBySlug(ctx context.Context, slug string) (*models.Khuwani, error)

	// GetForOrganizer retrieves a khuwani only if it is owned by the given
	// organizer. Absence and ownership mismatch are both ErrKhuwaniNotFound;
	// callers must not be able to distinguish other people's sessions from
	// nonexistent ones.
	GetForOrganizer(ctx context.Context, khuwaniID, organizerID uuid.UUID) (*models.Khuwani, error)

	// SlugExists reports whether a slug is already taken. Advisory only —
	// a pre-check that reduces, not eliminates, collision probability.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// IncrementQuranCount atomically adds one Quran instance. The increment
	// is a single read-modify-write at the storage level so concurrent calls
	// never lose updates. Ownership-checked like GetForOrganizer.
	IncrementQuranCount(ctx context.Context, khuwaniID, organizerID uuid.UUID) error

	// Delete removes the khuwani and all its claims as one logical unit.
	// Ownership-checked like GetForOrganizer.
	Delete(ctx context.Context, khuwaniID, organizerID uuid.UUID) error

	// ListByOrganizer returns all khuwanies owned by an organizer, newest
	// first.
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*models.Khuwani, error)
}

// ClaimStore manages sipara claims.
type ClaimStore interface {
	// Create persists a new claim. Returns ErrSlotTaken when the
	// (khuwani, quran instance, sipara) slot is already held — this is how
	// the loser of a claim race finds out, and it is a normal outcome, not
	// a fault. The check-and-insert is a single atomic operation.
	Create(ctx context.Context, claim *models.Claim) error

	// ListByKhuwani returns all claims for a khuwani ordered by
	// (quran_number, sipara_number).
	ListByKhuwani(ctx context.Context, khuwaniID uuid.UUID) ([]*models.Claim, error)

	// Release deletes the claim matching all four fields exactly
	// (case-sensitive name match) and reports whether a claim was removed.
	// A miss is a normal outcome: the slot was free, or the name differed,
	// or a concurrent release got there first.
	Release(ctx context.Context, khuwaniID uuid.UUID, quranNumber, siparaNumber int, participantName string) (bool, error)

	// DeleteByKhuwani removes every claim for a khuwani and returns how
	// many were removed. Used by reset; the khuwani itself is untouched.
	DeleteByKhuwani(ctx context.Context, khuwaniID uuid.UUID) (int, error)
}

// SessionStore manages organizer login sessions.
type SessionStore interface {
	// Create persists a new session.
	Create(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID. Returns ErrSessionExpired for sessions
	// past their expiry.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)

	// Touch updates the session's last_used_at timestamp.
	Touch(ctx context.Context, sessionID uuid.UUID) error

	// Delete deletes a session by ID (logout).
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// DeleteByOrganizer deletes all sessions for an organizer and returns
	// how many were removed.
	DeleteByOrganizer(ctx context.Context, organizerID uuid.UUID) (int, error)
}
