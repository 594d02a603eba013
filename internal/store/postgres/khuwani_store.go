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

// KhuwaniStore implements store.KhuwaniStore using PostgreSQL.
type KhuwaniStore struct {
	pool *pgxpool.Pool
}

// NewKhuwaniStore creates a new PostgreSQL-backed khuwani store.
func NewKhuwaniStore(pool *pgxpool.Pool) *KhuwaniStore {
	return &KhuwaniStore{
		pool: pool,
	}
}

// Create creates a new khuwani. The khuwanies_slug_key constraint decides
// slug uniqueness regardless of any SlugExists pre-check the caller did.
func (s *KhuwaniStore) Create(ctx context.Context, khuwani *models.Khuwani) error {
	query := `
		INSERT INTO khuwanies (
			khuwani_id, organizer_id, slug,
			dedicatee_name, quran_count, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.pool.Exec(ctx, query,
		khuwani.KhuwaniID,
		khuwani.OrganizerID,
		khuwani.Slug,
		khuwani.DedicateeName,
		khuwani.QuranCount,
		khuwani.CreatedAt,
	)

	if err != nil {
		if mapped := mapPostgresError(err); errors.Is(mapped, store.ErrSlugExists) {
			return store.ErrSlugExists
		}
		return fmt.Errorf("failed to create khuwani: %w", err)
	}

	log.Debug().
		Str("khuwani_id", khuwani.KhuwaniID.String()).
		Str("slug", khuwani.Slug).
		Msg("Created khuwani")

	return nil
}

// Get retrieves a khuwani by ID.
func (s *KhuwaniStore) Get(ctx context.Context, khuwaniID uuid.UUID) (*models.Khuwani, error) {
	query := `
		SELECT khuwani_id, organizer_id, slug, dedicatee_name, quran_count, created_at
		FROM khuwanies
		WHERE khuwani_id = $1
	`

	return s.scanOne(ctx, query, khuwaniID)
}

// GetBySlug retrieves a khuwani by its public slug.
func (s *KhuwaniStore) GetBySlug(ctx context.Context, slug string) (*models.Khuwani, error) {
	query := `
		SELECT khuwani_id, organizer_id, slug, dedicatee_name, quran_count, created_at
		FROM khuwanies
		WHERE slug = $1
	`

	return s.scanOne(ctx, query, slug)
}

// GetForOrganizer retrieves a khuwani only if the organizer owns it.
// Absence and ownership mismatch both come back as ErrKhuwaniNotFound.
func (s *KhuwaniStore) GetForOrganizer(ctx context.Context, khuwaniID, organizerID uuid.UUID) (*models.Khuwani, error) {
	query := `
		SELECT khuwani_id, organizer_id, slug, dedicatee_name, quran_count, created_at
		FROM khuwanies
		WHERE khuwani_id = $1 AND organizer_id = $2
	`

	return s.scanOne(ctx, query, khuwaniID, organizerID)
}

// SlugExists reports whether a slug is already taken. Advisory only; the
// Create constraint is the final word.
func (s *KhuwaniStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM khuwanies WHERE slug = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return exists, nil
}

// IncrementQuranCount atomically adds one Quran instance. One UPDATE does
// the read-modify-write inside the database, so concurrent increments never
// lose updates.
func (s *KhuwaniStore) IncrementQuranCount(ctx context.Context, khuwaniID, organizerID uuid.UUID) error {
	query := `
		UPDATE khuwanies
		SET quran_count = quran_count + 1
		WHERE khuwani_id = $1 AND organizer_id = $2
	`

	result, err := s.pool.Exec(ctx, query, khuwaniID, organizerID)
	if err != nil {
		return fmt.Errorf("failed to increment quran count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrKhuwaniNotFound
	}

	log.Debug().
		Str("khuwani_id", khuwaniID.String()).
		Msg("Incremented quran count")

	return nil
}

// Delete removes the khuwani; the claims foreign key cascades, so the
// khuwani and its claims disappear as one logical unit.
func (s *KhuwaniStore) Delete(ctx context.Context, khuwaniID, organizerID uuid.UUID) error {
	query := `DELETE FROM khuwanies WHERE khuwani_id = $1 AND organizer_id = $2`

	result, err := s.pool.Exec(ctx, query, khuwaniID, organizerID)
	if err != nil {
		return fmt.Errorf("failed to delete khuwani: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrKhuwaniNotFound
	}

	log.Debug().
		Str("khuwani_id", khuwaniID.String()).
		Msg("Deleted khuwani")

	return nil
}

// ListByOrganizer returns all khuwanies owned by an organizer, newest first.
func (s *KhuwaniStore) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*models.Khuwani, error) {
	query := `
		SELECT khuwani_id, organizer_id, slug, dedicatee_name, quran_count, created_at
		FROM khuwanies
		WHERE organizer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list khuwanies: %w", err)
	}
	defer rows.Close()

	var result []*models.Khuwani
	for rows.Next() {
		var khuwani models.Khuwani
		if err := rows.Scan(
			&khuwani.KhuwaniID,
			&khuwani.OrganizerID,
			&khuwani.Slug,
			&khuwani.DedicateeName,
			&khuwani.QuranCount,
			&khuwani.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan khuwani: %w", err)
		}
		result = append(result, &khuwani)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate khuwanies: %w", err)
	}

	return result, nil
}

func (s *KhuwaniStore) scanOne(ctx context.Context, query string, args ...any) (*models.Khuwani, error) {
	var khuwani models.Khuwani
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&khuwani.KhuwaniID,
		&khuwani.OrganizerID,
		&khuwani.Slug,
		&khuwani.DedicateeName,
		&khuwani.QuranCount,
		&khuwani.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrKhuwaniNotFound
		}
		return nil, fmt.Errorf("failed to get khuwani: %w", err)
	}

	return &khuwani, nil
}
