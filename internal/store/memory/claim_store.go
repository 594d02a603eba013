package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

// slotKey is the uniqueness triple the claim race is decided on. It plays
// the role of the claims_slot_key constraint in the postgres backend.
type slotKey struct {
	khuwaniID    uuid.UUID
	quranNumber  int
	siparaNumber int
}

// ClaimStore implements store.ClaimStore using in-memory storage.
type ClaimStore struct {
	mu sync.RWMutex

	claims       map[uuid.UUID]*models.Claim // claim_id -> Claim
	claimsBySlot map[slotKey]*models.Claim   // slot -> Claim
}

// NewClaimStore creates a new in-memory claim store.
func NewClaimStore() *ClaimStore {
	return &ClaimStore{
		claims:       make(map[uuid.UUID]*models.Claim),
		claimsBySlot: make(map[slotKey]*models.Claim),
	}
}

// Create creates a new claim. The existence check and the insert happen
// under one lock acquisition, so of N concurrent attempts on the same slot
// exactly one succeeds and the rest get ErrSlotTaken.
func (s *ClaimStore) Create(ctx context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{
		khuwaniID:    claim.KhuwaniID,
		quranNumber:  claim.QuranNumber,
		siparaNumber: claim.SiparaNumber,
	}

	if _, exists := s.claimsBySlot[key]; exists {
		return store.ErrSlotTaken
	}

	// Clone to avoid external modifications
	clone := *claim
	s.claims[claim.ClaimID] = &clone
	s.claimsBySlot[key] = &clone

	return nil
}

// ListByKhuwani returns all claims for a khuwani ordered by
// (quran_number, sipara_number).
func (s *ClaimStore) ListByKhuwani(ctx context.Context, khuwaniID uuid.UUID) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Claim
	for _, claim := range s.claims {
		if claim.KhuwaniID != khuwaniID {
			continue
		}
		clone := *claim
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].QuranNumber != result[j].QuranNumber {
			return result[i].QuranNumber < result[j].QuranNumber
		}
		return result[i].SiparaNumber < result[j].SiparaNumber
	})

	return result, nil
}

// Release deletes the claim matching all four fields exactly. The name
// comparison is case-sensitive. Reports whether a claim was removed; a miss
// is an ordinary outcome, not an error.
func (s *ClaimStore) Release(ctx context.Context, khuwaniID uuid.UUID, quranNumber, siparaNumber int, participantName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{
		khuwaniID:    khuwaniID,
		quranNumber:  quranNumber,
		siparaNumber: siparaNumber,
	}

	claim, exists := s.claimsBySlot[key]
	if !exists || claim.ParticipantName != participantName {
		return false, nil
	}

	delete(s.claimsBySlot, key)
	delete(s.claims, claim.ClaimID)

	return true, nil
}

// DeleteByKhuwani removes every claim for a khuwani and returns how many
// were removed.
func (s *ClaimStore) DeleteByKhuwani(ctx context.Context, khuwaniID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toDelete []*models.Claim
	for _, claim := range s.claims {
		if claim.KhuwaniID == khuwaniID {
			toDelete = append(toDelete, claim)
		}
	}

	for _, claim := range toDelete {
		delete(s.claimsBySlot, slotKey{
			khuwaniID:    claim.KhuwaniID,
			quranNumber:  claim.QuranNumber,
			siparaNumber: claim.SiparaNumber,
		})
		delete(s.claims, claim.ClaimID)
	}

	return len(toDelete), nil
}
