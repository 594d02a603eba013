package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

// ClaimStore implements store.ClaimStore using PostgreSQL.
type ClaimStore struct {
	pool *pgxpool.Pool
}

// NewClaimStore creates a new PostgreSQL-backed claim store.
func NewClaimStore(pool *pgxpool.Pool) *ClaimStore {
	return &ClaimStore{
		pool: pool,
	}
}

// Create creates a new claim. The insert is the entire concurrency control:
// no pre-check, no transaction, just the claims_slot_key constraint deciding
// the race. The loser gets store.ErrSlotTaken, a normal outcome.
func (s *ClaimStore) Create(ctx context.Context, claim *models.Claim) error {
	query := `
		INSERT INTO claims (
			claim_id, khuwani_id, quran_number,
			sipara_number, participant_name, claimed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.pool.Exec(ctx, query,
		claim.ClaimID,
		claim.KhuwaniID,
		claim.QuranNumber,
		claim.SiparaNumber,
		claim.ParticipantName,
		claim.ClaimedAt,
	)

	if err != nil {
		mapped := mapPostgresError(err)
		if errors.Is(mapped, store.ErrSlotTaken) {
			return store.ErrSlotTaken
		}
		if errors.Is(mapped, store.ErrKhuwaniNotFound) {
			// Claim insert raced a khuwani delete.
			return store.ErrKhuwaniNotFound
		}
		return fmt.Errorf("failed to create claim: %w", err)
	}

	log.Debug().
		Str("khuwani_id", claim.KhuwaniID.String()).
		Int("quran_number", claim.QuranNumber).
		Int("sipara_number", claim.SiparaNumber).
		Msg("Created claim")

	return nil
}

// ListByKhuwani returns all claims for a khuwani ordered by
// (quran_number, sipara_number).
func (s *ClaimStore) ListByKhuwani(ctx context.Context, khuwaniID uuid.UUID) ([]*models.Claim, error) {
	query := `
		SELECT claim_id, khuwani_id, quran_number, sipara_number, participant_name, claimed_at
		FROM claims
		WHERE khuwani_id = $1
		ORDER BY quran_number, sipara_number
	`

	rows, err := s.pool.Query(ctx, query, khuwaniID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var result []*models.Claim
	for rows.Next() {
		var claim models.Claim
		if err := rows.Scan(
			&claim.ClaimID,
			&claim.KhuwaniID,
			&claim.QuranNumber,
			&claim.SiparaNumber,
			&claim.ParticipantName,
			&claim.ClaimedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		result = append(result, &claim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	return result, nil
}

// Release deletes the claim matching all four fields exactly, including a
// case-sensitive participant name, and reports whether a row went away.
// Zero rows is a normal outcome, not an error.
func (s *ClaimStore) Release(ctx context.Context, khuwaniID uuid.UUID, quranNumber, siparaNumber int, participantName string) (bool, error) {
	query := `
		DELETE FROM claims
		WHERE khuwani_id = $1
		  AND quran_number = $2
		  AND sipara_number = $3
		  AND participant_name = $4
	`

	result, err := s.pool.Exec(ctx, query, khuwaniID, quranNumber, siparaNumber, participantName)
	if err != nil {
		return false, fmt.Errorf("failed to release claim: %w", err)
	}

	released := result.RowsAffected() > 0

	if released {
		log.Debug().
			Str("khuwani_id", khuwaniID.String()).
			Int("quran_number", quranNumber).
			Int("sipara_number", siparaNumber).
			Msg("Released claim")
	}

	return released, nil
}

// DeleteByKhuwani removes every claim for a khuwani (reset) and returns how
// many were removed.
func (s *ClaimStore) DeleteByKhuwani(ctx context.Context, khuwaniID uuid.UUID) (int, error) {
	query := `DELETE FROM claims WHERE khuwani_id = $1`

	result, err := s.pool.Exec(ctx, query, khuwaniID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete claims: %w", err)
	}

	count := int(result.RowsAffected())

	log.Debug().
		Str("khuwani_id", khuwaniID.String()).
		Int("count", count).
		Msg("Deleted claims for khuwani")

	return count, nil
}
