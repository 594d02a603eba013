// Package postgres implements the store contracts over pgx/pgxpool. All
// uniqueness races (claims, slugs, emails) are decided by the database
// constraints declared in migrations/ and translated to sentinel errors in
// errors.go — never by application-level check-then-act.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

// OrganizerStore implements store.OrganizerStore using PostgreSQL.
type OrganizerStore struct {
	pool *pgxpool.Pool
}

// NewOrganizerStore creates a new PostgreSQL-backed organizer store.
func NewOrganizerStore(pool *pgxpool.Pool) *OrganizerStore {
	return &OrganizerStore{
		pool: pool,
	}
}

// Create creates a new organizer. The organizers_email_key constraint turns
// a duplicate registration into store.ErrOrganizerExists.
func (s *OrganizerStore) Create(ctx context.Context, organizer *models.Organizer) error {
	query := `
		INSERT INTO organizers (
			organizer_id, email, password_hash,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := s.pool.Exec(ctx, query,
		organizer.OrganizerID,
		organizer.Email,
		organizer.PasswordHash,
		organizer.CreatedAt,
		organizer.UpdatedAt,
	)

	if err != nil {
		if mapped := mapPostgresError(err); errors.Is(mapped, store.ErrOrganizerExists) {
			return store.ErrOrganizerExists
		}
		return fmt.Errorf("failed to create organizer: %w", err)
	}

	log.Debug().
		Str("organizer_id", organizer.OrganizerID.String()).
		Msg("Created organizer")

	return nil
}

// Get retrieves an organizer by ID.
func (s *OrganizerStore) Get(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error) {
	query := `
		SELECT organizer_id, email, password_hash, created_at, updated_at
		FROM organizers
		WHERE organizer_id = $1
	`

	return s.scanOne(ctx, query, organizerID)
}

// GetByEmail retrieves an organizer by normalized email.
func (s *OrganizerStore) GetByEmail(ctx context.Context, email string) (*models.Organizer, error) {
	query := `
		SELECT organizer_id, email, password_hash, created_at, updated_at
		FROM organizers
		WHERE email = $1
	`

	return s.scanOne(ctx, query, email)
}

func (s *OrganizerStore) scanOne(ctx context.Context, query string, arg any) (*models.Organizer, error) {
	var organizer models.Organizer
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&organizer.OrganizerID,
		&organizer.Email,
		&organizer.PasswordHash,
		&organizer.CreatedAt,
		&organizer.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}

	return &organizer, nil
}
