package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/khuwani/internal/store"
	"github.com/wolfeidau/khuwani/internal/store/memory"
	"golang.org/x/crypto/bcrypt"
)

func newTestGate() *Gate {
	return NewGate(memory.NewOrganizerStore(), bcrypt.MinCost)
}

func TestGate_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates organizer with normalized email", func(t *testing.T) {
		gate := newTestGate()

		organizer, err := gate.Register(ctx, "  Hamza@Example.COM ", "secret1", "secret1")
		require.NoError(t, err)
		require.Equal(t, "hamza@example.com", organizer.Email)
		require.NotEqual(t, "secret1", organizer.PasswordHash)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		gate := newTestGate()

		for _, email := range []string{"", "plainaddress", "@example.com", "user@", "user@nodot"} {
			_, err := gate.Register(ctx, email, "secret1", "secret1")

			var ve *ValidationError
			require.ErrorAs(t, err, &ve, "email %q", email)
			require.Equal(t, "email", ve.Field)
		}
	})

	t.Run("rejects short password", func(t *testing.T) {
		gate := newTestGate()

		_, err := gate.Register(ctx, "hamza@example.com", "12345", "12345")

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, "password", ve.Field)
	})

	t.Run("rejects mismatched confirmation", func(t *testing.T) {
		gate := newTestGate()

		_, err := gate.Register(ctx, "hamza@example.com", "secret1", "secret2")

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, "confirm_password", ve.Field)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		gate := newTestGate()

		_, err := gate.Register(ctx, "hamza@example.com", "secret1", "secret1")
		require.NoError(t, err)

		_, err = gate.Register(ctx, "HAMZA@example.com", "other-password", "other-password")
		require.ErrorIs(t, err, store.ErrOrganizerExists)
	})
}

func TestGate_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		gate := newTestGate()

		registered, err := gate.Register(ctx, "hamza@example.com", "secret1", "secret1")
		require.NoError(t, err)

		organizer, err := gate.Authenticate(ctx, "Hamza@Example.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, registered.OrganizerID, organizer.OrganizerID)
	})

	t.Run("wrong password", func(t *testing.T) {
		gate := newTestGate()

		_, err := gate.Register(ctx, "hamza@example.com", "secret1", "secret1")
		require.NoError(t, err)

		_, err = gate.Authenticate(ctx, "hamza@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email yields the same error as wrong password", func(t *testing.T) {
		gate := newTestGate()

		_, err := gate.Authenticate(ctx, "nobody@example.com", "whatever")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
