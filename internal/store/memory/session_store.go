package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

// SessionStore implements store.SessionStore using in-memory storage.
type SessionStore struct {
	mu sync.RWMutex

	sessions            map[uuid.UUID]*models.Session // session_id -> Session
	sessionsByOrganizer map[uuid.UUID][]uuid.UUID     // organizer_id -> []session_id
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:            make(map[uuid.UUID]*models.Session),
		sessionsByOrganizer: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Create creates a new session in memory.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clone to avoid external modifications
	clone := *session
	s.sessions[session.SessionID] = &clone

	s.sessionsByOrganizer[session.OrganizerID] = append(
		s.sessionsByOrganizer[session.OrganizerID],
		session.SessionID,
	)

	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	if session.IsExpired() {
		return nil, store.ErrSessionExpired
	}

	clone := *session
	return &clone, nil
}

// Touch updates the session's last_used_at timestamp.
func (s *SessionStore) Touch(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return store.ErrSessionNotFound
	}

	session.LastUsedAt = time.Now()
	return nil
}

// Delete deletes a session by ID (logout).
func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return store.ErrSessionNotFound
	}

	s.removeFromOrganizerIndex(session.OrganizerID, sessionID)
	delete(s.sessions, sessionID)

	return nil
}

// DeleteByOrganizer deletes all sessions for an organizer (logout everywhere).
func (s *SessionStore) DeleteByOrganizer(ctx context.Context, organizerID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionIDs, exists := s.sessionsByOrganizer[organizerID]
	if !exists {
		return 0, nil
	}

	count := len(sessionIDs)

	for _, sessionID := range sessionIDs {
		delete(s.sessions, sessionID)
	}
	delete(s.sessionsByOrganizer, organizerID)

	return count, nil
}

// removeFromOrganizerIndex removes a session ID from the organizer's list.
func (s *SessionStore) removeFromOrganizerIndex(organizerID, sessionID uuid.UUID) {
	sessionIDs := s.sessionsByOrganizer[organizerID]
	for i, id := range sessionIDs {
		if id == sessionID {
			s.sessionsByOrganizer[organizerID] = append(sessionIDs[:i], sessionIDs[i+1:]...)
			break
		}
	}
	if len(s.sessionsByOrganizer[organizerID]) == 0 {
		delete(s.sessionsByOrganizer, organizerID)
	}
}
