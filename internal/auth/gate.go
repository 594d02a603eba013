// Package auth is the access gate for organizers: registration and
// password verification, plus cookie-backed login sessions. Participants
// are anonymous by design and never pass through here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// ErrInvalidCredentials covers both an unknown email and a wrong password,
// deliberately indistinguishable so login cannot be used to probe for
// accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError reports malformed registration input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Gate verifies organizer identities against the organizer store.
type Gate struct {
	organizers store.OrganizerStore
	bcryptCost int
}

// NewGate creates an access gate. cost is the bcrypt work factor; zero
// means bcrypt.DefaultCost.
func NewGate(organizers store.OrganizerStore, cost int) *Gate {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Gate{
		organizers: organizers,
		bcryptCost: cost,
	}
}

// Register creates a new organizer account and returns it as if already
// authenticated. Email lookup is made case-insensitive by normalizing at
// write time (and again at login) rather than relying on store collation.
func (g *Gate) Register(ctx context.Context, email, password, confirmPassword string) (*models.Organizer, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if len(password) < minPasswordLen {
		return nil, &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	if password != confirmPassword {
		return nil, &ValidationError{Field: "confirm_password", Reason: "passwords do not match"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate organizer id: %w", err)
	}

	now := time.Now()
	organizer := &models.Organizer{
		OrganizerID:  id,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := g.organizers.Create(ctx, organizer); err != nil {
		// store.ErrOrganizerExists passes through for the duplicate
		// account outcome.
		return nil, err
	}

	log.Info().
		Str("organizer_id", organizer.OrganizerID.String()).
		Msg("Registered organizer")

	return organizer, nil
}

// Authenticate verifies an email/password pair and returns the organizer.
// Unknown email and wrong password produce the same ErrInvalidCredentials.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (*models.Organizer, error) {
	organizer, err := g.organizers.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrOrganizerNotFound) {
			// Burn a bcrypt comparison anyway so the unknown-email path
			// takes as long as the wrong-password path.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up organizer: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(organizer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return organizer, nil
}

// Organizer loads an organizer account by id, backing the profile lookup
// for an authenticated session.
func (g *Gate) Organizer(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error) {
	return g.organizers.Get(ctx, organizerID)
}

// dummyHash is a bcrypt hash of an unguessable value, used to equalize
// timing between unknown-email and wrong-password failures.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		panic("auth: bcrypt unavailable: " + err.Error())
	}
	return h
}()

// NormalizeEmail lowers and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail is deliberately loose: an @ with something before it and a
// dot in the domain. Real validation happens when mail is delivered.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1 && !strings.Contains(domain, "@")
}
