package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

// KhuwaniStore implements store.KhuwaniStore using in-memory storage.
type KhuwaniStore struct {
	mu sync.RWMutex

	khuwanies       map[uuid.UUID]*models.Khuwani // khuwani_id -> Khuwani
	khuwaniesBySlug map[string]*models.Khuwani    // slug -> Khuwani

	// claims cascades with khuwani deletion, mirroring the postgres
	// ON DELETE CASCADE. Set by SetClaimStore at wiring time.
	claims *ClaimStore
}

// NewKhuwaniStore creates a new in-memory khuwani store.
func NewKhuwaniStore() *KhuwaniStore {
	return &KhuwaniStore{
		khuwanies:       make(map[uuid.UUID]*models.Khuwani),
		khuwaniesBySlug: make(map[string]*models.Khuwani),
	}
}

// SetClaimStore links the claim store so Delete can cascade claims the way
// the postgres foreign key does.
func (s *KhuwaniStore) SetClaimStore(claims *ClaimStore) {
	s.claims = claims
}

// Create creates a new khuwani in memory.
func (s *KhuwaniStore) Create(ctx context.Context, khuwani *models.Khuwani) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.khuwaniesBySlug[khuwani.Slug]; exists {
		return store.ErrSlugExists
	}

	// Clone to avoid external modifications
	clone := *khuwani
	s.khuwanies[khuwani.KhuwaniID] = &clone
	s.khuwaniesBySlug[khuwani.Slug] = &clone

	return nil
}

// Get retrieves a khuwani by ID.
func (s *KhuwaniStore) Get(ctx context.Context, khuwaniID uuid.UUID) (*models.Khuwani, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	khuwani, exists := s.khuwanies[khuwaniID]
	if !exists {
		return nil, store.ErrKhuwaniNotFound
	}

	clone := *khuwani
	return &clone, nil
}

// GetBySlug retrieves a khuwani by its public slug.
func (s *KhuwaniStore) GetBySlug(ctx context.Context, slug string) (*models.Khuwani, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	khuwani, exists := s.khuwaniesBySlug[slug]
	if !exists {
		return nil, store.ErrKhuwaniNotFound
	}

	clone := *khuwani
	return &clone, nil
}

// GetForOrganizer retrieves a khuwani only if the organizer owns it.
// Absence and ownership mismatch are indistinguishable to the caller.
func (s *KhuwaniStore) GetForOrganizer(ctx context.Context, khuwaniID, organizerID uuid.UUID) (*models.Khuwani, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	khuwani, exists := s.khuwanies[khuwaniID]
	if !exists || khuwani.OrganizerID != organizerID {
		return nil, store.ErrKhuwaniNotFound
	}

	clone := *khuwani
	return &clone, nil
}

// SlugExists reports whether a slug is already taken.
func (s *KhuwaniStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.khuwaniesBySlug[slug]
	return exists, nil
}

// IncrementQuranCount atomically adds one Quran instance. The whole
// read-modify-write happens under the store lock so concurrent increments
// never lose updates.
func (s *KhuwaniStore) IncrementQuranCount(ctx context.Context, khuwaniID, organizerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	khuwani, exists := s.khuwanies[khuwaniID]
	if !exists || khuwani.OrganizerID != organizerID {
		return store.ErrKhuwaniNotFound
	}

	khuwani.QuranCount++
	return nil
}

// Delete removes the khuwani and cascades its claims under one lock, so a
// claim never outlives its khuwani.
func (s *KhuwaniStore) Delete(ctx context.Context, khuwaniID, organizerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	khuwani, exists := s.khuwanies[khuwaniID]
	if !exists || khuwani.OrganizerID != organizerID {
		return store.ErrKhuwaniNotFound
	}

	if s.claims != nil {
		if _, err := s.claims.DeleteByKhuwani(ctx, khuwaniID); err != nil {
			return err
		}
	}

	delete(s.khuwaniesBySlug, khuwani.Slug)
	delete(s.khuwanies, khuwaniID)

	return nil
}

// ListByOrganizer returns all khuwanies owned by an organizer, newest first.
func (s *KhuwaniStore) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*models.Khuwani, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Khuwani
	for _, khuwani := range s.khuwanies {
		if khuwani.OrganizerID != organizerID {
			continue
		}
		clone := *khuwani
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}
