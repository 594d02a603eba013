// Package memory implements the store contracts with mutex-guarded maps.
// It backs development mode and unit tests; data is lost on restart. The
// atomicity contracts match the postgres backend — claim creation and the
// quran-count increment happen entirely under the store lock.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

// OrganizerStore implements store.OrganizerStore using in-memory storage.
type OrganizerStore struct {
	mu sync.RWMutex

	organizers        map[uuid.UUID]*models.Organizer // organizer_id -> Organizer
	organizersByEmail map[string]*models.Organizer    // email -> Organizer
}

// NewOrganizerStore creates a new in-memory organizer store.
func NewOrganizerStore() *OrganizerStore {
	return &OrganizerStore{
		organizers:        make(map[uuid.UUID]*models.Organizer),
		organizersByEmail: make(map[string]*models.Organizer),
	}
}

// Create creates a new organizer in memory.
func (s *OrganizerStore) Create(ctx context.Context, organizer *models.Organizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizersByEmail[organizer.Email]; exists {
		return store.ErrOrganizerExists
	}

	// Clone to avoid external modifications
	clone := *organizer
	s.organizers[organizer.OrganizerID] = &clone
	s.organizersByEmail[organizer.Email] = &clone

	return nil
}

// Get retrieves an organizer by ID.
func (s *OrganizerStore) Get(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	organizer, exists := s.organizers[organizerID]
	if !exists {
		return nil, store.ErrOrganizerNotFound
	}

	clone := *organizer
	return &clone, nil
}

// GetByEmail retrieves an organizer by normalized email.
func (s *OrganizerStore) GetByEmail(ctx context.Context, email string) (*models.Organizer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	organizer, exists := s.organizersByEmail[email]
	if !exists {
		return nil, store.ErrOrganizerNotFound
	}

	clone := *organizer
	return &clone, nil
}
