package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/store"
)

func newClaim(khuwaniID uuid.UUID, quran, sipara int, name string) *models.Claim {
	return &models.Claim{
		ClaimID:         uuid.New(),
		KhuwaniID:       khuwaniID,
		QuranNumber:     quran,
		SiparaNumber:    sipara,
		ParticipantName: name,
		ClaimedAt:       time.Now(),
	}
}

func TestClaimStore_Create(t *testing.T) {
	t.Run("create new claim", func(t *testing.T) {
		st := NewClaimStore()
		ctx := context.Background()

		err := st.Create(ctx, newClaim(uuid.New(), 1, 5, "Ahmed"))
		require.NoError(t, err)
	})

	t.Run("second claim on same slot returns ErrSlotTaken", func(t *testing.T) {
		st := NewClaimStore()
		ctx := context.Background()
		khuwaniID := uuid.New()

		err := st.Create(ctx, newClaim(khuwaniID, 1, 5, "Ahmed"))
		require.NoError(t, err)

		err = st.Create(ctx, newClaim(khuwaniID, 1, 5, "Fatima"))
		require.ErrorIs(t, err, store.ErrSlotTaken)
	})

	t.Run("same sipara on different quran instance is free", func(t *testing.T) {
		st := NewClaimStore()
		ctx := context.Background()
		khuwaniID := uuid.New()

		require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 5, "Ahmed")))
		require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 2, 5, "Ahmed")))
	})

	t.Run("same slot on different khuwani is free", func(t *testing.T) {
		st := NewClaimStore()
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, newClaim(uuid.New(), 1, 5, "Ahmed")))
		require.NoError(t, st.Create(ctx, newClaim(uuid.New(), 1, 5, "Ahmed")))
	})
}

func TestClaimStore_ConcurrentClaims(t *testing.T) {
	// The core race property: N concurrent attempts on one slot, exactly
	// one winner, everyone else gets ErrSlotTaken.
	st := NewClaimStore()
	ctx := context.Background()
	khuwaniID := uuid.New()

	const attempts = 50

	start := make(chan struct{})
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = st.Create(ctx, newClaim(khuwaniID, 1, 7, "Participant"))
		}()
	}

	close(start)
	wg.Wait()

	won, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		default:
			require.ErrorIs(t, err, store.ErrSlotTaken)
			lost++
		}
	}

	require.Equal(t, 1, won)
	require.Equal(t, attempts-1, lost)
}

func TestClaimStore_Release(t *testing.T) {
	t.Run("release removes matching claim", func(t *testing.T) {
		st := NewClaimStore()
		ctx := context.Background()
		khuwaniID := uuid.New()

		require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 5, "Ahmed")))

		released, err := st.Release(ctx, khuwaniID, 1, 5, "Ahmed")
		require.NoError(t, err)
		require.True(t, released)

		// Slot is claimable again.
		require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 5, "Fatima")))
	})

	t.Run("second release returns false", func(t *testing.T) {
		st := NewClaimStore()
		ctx := context.Background()
		khuwaniID := uuid.New()

		require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 5, "Ahmed")))

		released, err := st.Release(ctx, khuwaniID, 1, 5, "Ahmed")
		require.NoError(t, err)
		require.True(t, released)

		released, err = st.Release(ctx, khuwaniID, 1, 5, "Ahmed")
		require.NoError(t, err)
		require.False(t, released)
	})

	t.Run("name mismatch releases nothing", func(t *testing.T) {
		st := NewClaimStore()
		ctx := context.Background()
		khuwaniID := uuid.New()

		require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 5, "Ahmed")))

		released, err := st.Release(ctx, khuwaniID, 1, 5, "ahmed")
		require.NoError(t, err)
		require.False(t, released, "name match is case-sensitive")

		claims, err := st.ListByKhuwani(ctx, khuwaniID)
		require.NoError(t, err)
		require.Len(t, claims, 1)
	})
}

func TestClaimStore_ListByKhuwani(t *testing.T) {
	st := NewClaimStore()
	ctx := context.Background()
	khuwaniID := uuid.New()

	require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 2, 1, "Bilal")))
	require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 9, "Fatima")))
	require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 3, "Ahmed")))
	require.NoError(t, st.Create(ctx, newClaim(uuid.New(), 1, 3, "Someone else")))

	claims, err := st.ListByKhuwani(ctx, khuwaniID)
	require.NoError(t, err)
	require.Len(t, claims, 3)

	// Ordered by (quran_number, sipara_number).
	require.Equal(t, "Ahmed", claims[0].ParticipantName)
	require.Equal(t, "Fatima", claims[1].ParticipantName)
	require.Equal(t, "Bilal", claims[2].ParticipantName)
}

func TestClaimStore_DeleteByKhuwani(t *testing.T) {
	st := NewClaimStore()
	ctx := context.Background()
	khuwaniID := uuid.New()
	other := uuid.New()

	require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 1, "Ahmed")))
	require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 2, "Fatima")))
	require.NoError(t, st.Create(ctx, newClaim(other, 1, 1, "Bilal")))

	count, err := st.DeleteByKhuwani(ctx, khuwaniID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	claims, err := st.ListByKhuwani(ctx, khuwaniID)
	require.NoError(t, err)
	require.Empty(t, claims)

	// Unrelated khuwani untouched.
	claims, err = st.ListByKhuwani(ctx, other)
	require.NoError(t, err)
	require.Len(t, claims, 1)

	// Previously claimed slots reopen.
	require.NoError(t, st.Create(ctx, newClaim(khuwaniID, 1, 1, "Noor")))
}
