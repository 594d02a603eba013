// Package khuwani is the session lifecycle core: it creates, grows, resets
// and deletes khuwanies, and orchestrates the claim/release flow for
// anonymous participants.
//
// Concurrency control is delegated entirely to the stores. A claim attempt
// never pre-checks "already claimed"; it inserts and lets the storage
// uniqueness constraint decide the race, translating the rejection into
// store.ErrSlotTaken for the loser. The service adds only validation,
// ownership checks, metrics, and the bounded slug retry loop.
package khuwani

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/projection"
	"github.com/wolfeidau/khuwani/internal/slug"
	"github.com/wolfeidau/khuwani/internal/store"
	"github.com/wolfeidau/khuwani/internal/telemetry"
)

const (
	// maxSlugAttempts bounds the collision pre-check loop. After this many
	// collisions the last candidate proceeds optimistically and the
	// storage constraint has the final word.
	maxSlugAttempts = 10

	maxDedicateeNameLen = 200
)

// Service implements the khuwani lifecycle operations over the store
// contracts.
type Service struct {
	khuwanies store.KhuwaniStore
	claims    store.ClaimStore

	// generateSlug is a seam for tests; defaults to slug.Generate.
	generateSlug func(name string) string

	metrics *telemetry.Metrics
}

// NewService creates the lifecycle service.
func NewService(khuwanies store.KhuwaniStore, claims store.ClaimStore) *Service {
	return &Service{
		khuwanies:    khuwanies,
		claims:       claims,
		generateSlug: slug.Generate,
		metrics:      telemetry.GetMetrics(),
	}
}

// WithSlugGenerator overrides slug generation, used by tests to force
// collisions deterministically.
func (s *Service) WithSlugGenerator(fn func(name string) string) *Service {
	s.generateSlug = fn
	return s
}

// Create makes a new khuwani for the organizer with one Quran instance and
// a freshly allocated slug.
func (s *Service) Create(ctx context.Context, organizerID uuid.UUID, dedicateeName string) (*models.Khuwani, error) {
	dedicateeName = strings.TrimSpace(dedicateeName)
	if dedicateeName == "" {
		return nil, &ValidationError{Field: "dedicatee_name", Reason: "must not be empty"}
	}
	if len(dedicateeName) > maxDedicateeNameLen {
		return nil, &ValidationError{Field: "dedicatee_name", Reason: fmt.Sprintf("must be at most %d characters", maxDedicateeNameLen)}
	}

	// Best-effort collision pre-check: try up to maxSlugAttempts
	// candidates, keep the first free one. If every candidate collides,
	// proceed with the last and let the khuwanies_slug_key constraint
	// decide.
	candidate := s.generateSlug(dedicateeName)
	for attempt := 1; attempt < maxSlugAttempts; attempt++ {
		exists, err := s.khuwanies.SlugExists(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			break
		}
		s.metrics.SlugRetriesTotal.Add(ctx, 1)
		candidate = s.generateSlug(dedicateeName)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate khuwani id: %w", err)
	}

	khuwani := &models.Khuwani{
		KhuwaniID:     id,
		OrganizerID:   organizerID,
		Slug:          candidate,
		DedicateeName: dedicateeName,
		QuranCount:    1,
		CreatedAt:     time.Now(),
	}

	if err := s.khuwanies.Create(ctx, khuwani); err != nil {
		if errors.Is(err, store.ErrSlugExists) {
			// The optimistic final insert also collided.
			return nil, ErrSlugExhausted
		}
		return nil, fmt.Errorf("failed to create khuwani: %w", err)
	}

	s.metrics.KhuwaniesCreatedTotal.Add(ctx, 1)

	log.Info().
		Str("khuwani_id", khuwani.KhuwaniID.String()).
		Str("slug", khuwani.Slug).
		Msg("Created khuwani")

	return khuwani, nil
}

// AddQuranInstance grows the khuwani by one Quran instance. Ownership
// mismatch and absence both surface as store.ErrKhuwaniNotFound.
func (s *Service) AddQuranInstance(ctx context.Context, khuwaniID, organizerID uuid.UUID) error {
	if err := s.khuwanies.IncrementQuranCount(ctx, khuwaniID, organizerID); err != nil {
		return err
	}

	s.metrics.QuranInstancesAdded.Add(ctx, 1)
	return nil
}

// ResetClaims removes every claim for the khuwani; the quran count is left
// untouched. Returns how many claims were removed.
func (s *Service) ResetClaims(ctx context.Context, khuwaniID, organizerID uuid.UUID) (int, error) {
	khuwani, err := s.khuwanies.GetForOrganizer(ctx, khuwaniID, organizerID)
	if err != nil {
		return 0, err
	}

	count, err := s.claims.DeleteByKhuwani(ctx, khuwani.KhuwaniID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset claims: %w", err)
	}

	s.metrics.ClaimResetsTotal.Add(ctx, 1)

	log.Info().
		Str("khuwani_id", khuwaniID.String()).
		Int("claims_removed", count).
		Msg("Reset khuwani claims")

	return count, nil
}

// Delete removes the khuwani and all its claims as one logical unit.
func (s *Service) Delete(ctx context.Context, khuwaniID, organizerID uuid.UUID) error {
	if err := s.khuwanies.Delete(ctx, khuwaniID, organizerID); err != nil {
		return err
	}

	s.metrics.KhuwaniesDeletedTotal.Add(ctx, 1)

	log.Info().
		Str("khuwani_id", khuwaniID.String()).
		Msg("Deleted khuwani")

	return nil
}

// Claim attempts to take one (quran, sipara) slot for a participant. Slot
// coordinates are validated against the khuwani's current shape before any
// storage write; the race itself is decided by the insert, and a lost race
// comes back as store.ErrSlotTaken.
func (s *Service) Claim(ctx context.Context, publicSlug string, quranNumber, siparaNumber int, participantName string) (*models.Claim, error) {
	khuwani, err := s.khuwanies.GetBySlug(ctx, publicSlug)
	if err != nil {
		return nil, err
	}

	participantName = strings.TrimSpace(participantName)
	if participantName == "" {
		return nil, &ValidationError{Field: "participant_name", Reason: "must not be empty"}
	}
	if len(participantName) > models.MaxParticipantNameLen {
		return nil, &ValidationError{Field: "participant_name", Reason: fmt.Sprintf("must be at most %d characters", models.MaxParticipantNameLen)}
	}

	if quranNumber < 1 || quranNumber > khuwani.QuranCount {
		return nil, ErrInvalidSlot
	}
	if siparaNumber < 1 || siparaNumber > models.SiparasPerQuran {
		return nil, ErrInvalidSlot
	}

	claimID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate claim id: %w", err)
	}

	claim := &models.Claim{
		ClaimID:         claimID,
		KhuwaniID:       khuwani.KhuwaniID,
		QuranNumber:     quranNumber,
		SiparaNumber:    siparaNumber,
		ParticipantName: participantName,
		ClaimedAt:       time.Now(),
	}

	s.metrics.ClaimsAttemptedTotal.Add(ctx, 1)
	started := time.Now()

	if err := s.claims.Create(ctx, claim); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			s.metrics.ClaimsLostTotal.Add(ctx, 1)
			return nil, store.ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	s.metrics.ClaimsWonTotal.Add(ctx, 1)
	s.metrics.ClaimDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	log.Info().
		Str("khuwani_id", khuwani.KhuwaniID.String()).
		Int("quran_number", quranNumber).
		Int("sipara_number", siparaNumber).
		Msg("Claimed sipara")

	return claim, nil
}

// Release removes the claim matching the exact (quran, sipara, name)
// triple. There is no ownership token: whoever can name the claim may
// release it. A miss returns false, a normal outcome when releases race or
// the name differs.
func (s *Service) Release(ctx context.Context, publicSlug string, quranNumber, siparaNumber int, participantName string) (bool, error) {
	khuwani, err := s.khuwanies.GetBySlug(ctx, publicSlug)
	if err != nil {
		return false, err
	}

	// Out-of-range coordinates cannot match a claim; no storage call.
	if quranNumber < 1 || quranNumber > khuwani.QuranCount {
		return false, nil
	}
	if siparaNumber < 1 || siparaNumber > models.SiparasPerQuran {
		return false, nil
	}

	released, err := s.claims.Release(ctx, khuwani.KhuwaniID, quranNumber, siparaNumber, participantName)
	if err != nil {
		return false, fmt.Errorf("failed to release claim: %w", err)
	}

	if released {
		s.metrics.ReleasesTotal.Add(ctx, 1)
	} else {
		s.metrics.ReleaseMissesTotal.Add(ctx, 1)
	}

	return released, nil
}

// View resolves a public slug to the full participant projection: overall
// progress plus every instance with all 30 slots. This is the poll target.
func (s *Service) View(ctx context.Context, publicSlug string) (*projection.View, error) {
	khuwani, err := s.khuwanies.GetBySlug(ctx, publicSlug)
	if err != nil {
		return nil, err
	}

	claims, err := s.claims.ListByKhuwani(ctx, khuwani.KhuwaniID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	view := projection.Project(khuwani, claims)
	return &view, nil
}

// OrganizerView is like View but resolved by id with an ownership check,
// backing the organizer detail page.
func (s *Service) OrganizerView(ctx context.Context, khuwaniID, organizerID uuid.UUID) (*projection.View, error) {
	khuwani, err := s.khuwanies.GetForOrganizer(ctx, khuwaniID, organizerID)
	if err != nil {
		return nil, err
	}

	claims, err := s.claims.ListByKhuwani(ctx, khuwani.KhuwaniID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	view := projection.Project(khuwani, claims)
	return &view, nil
}

// OrganizerOverview lists the organizer's khuwanies, newest first, each
// with overall progress.
func (s *Service) OrganizerOverview(ctx context.Context, organizerID uuid.UUID) ([]projection.Summary, error) {
	khuwanies, err := s.khuwanies.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list khuwanies: %w", err)
	}

	summaries := make([]projection.Summary, 0, len(khuwanies))
	for _, k := range khuwanies {
		claims, err := s.claims.ListByKhuwani(ctx, k.KhuwaniID)
		if err != nil {
			return nil, fmt.Errorf("failed to list claims: %w", err)
		}
		summaries = append(summaries, projection.Summarize(k, claims))
	}

	return summaries, nil
}

// Summary resolves one khuwani by id with an ownership check and projects
// its overall progress, used after add-instance to return the new shape.
func (s *Service) Summary(ctx context.Context, khuwaniID, organizerID uuid.UUID) (*projection.Summary, error) {
	khuwani, err := s.khuwanies.GetForOrganizer(ctx, khuwaniID, organizerID)
	if err != nil {
		return nil, err
	}

	claims, err := s.claims.ListByKhuwani(ctx, khuwani.KhuwaniID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	summary := projection.Summarize(khuwani, claims)
	return &summary, nil
}
