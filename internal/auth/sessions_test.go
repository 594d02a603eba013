package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/khuwani/internal/store/memory"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestSessions(t *testing.T, ttl time.Duration) (*Sessions, *memory.SessionStore) {
	t.Helper()

	sessionStore := memory.NewSessionStore()
	sessions, err := NewSessions(sessionStore, testSecret, ttl, false)
	require.NoError(t, err)

	return sessions, sessionStore
}

// requestWithCookies copies the session cookie set on a recorder onto a
// fresh request, simulating the browser round trip.
func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestNewSessions(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewSessions(memory.NewSessionStore(), []byte("too short"), time.Hour, false)
		require.Error(t, err)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := NewSessions(memory.NewSessionStore(), testSecret, 0, false)
		require.Error(t, err)
	})
}

func TestSessions_IssueAndResolve(t *testing.T) {
	ctx := context.Background()
	sessions, _ := newTestSessions(t, time.Hour)

	organizerID := uuid.Must(uuid.NewV7())

	rec := httptest.NewRecorder()
	session, err := sessions.Issue(ctx, rec, organizerID, "test-agent", "192.0.2.1")
	require.NoError(t, err)
	require.Equal(t, organizerID, session.OrganizerID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "_session", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	resolved, err := sessions.Organizer(ctx, requestWithCookies(t, rec))
	require.NoError(t, err)
	require.Equal(t, organizerID, resolved)
}

func TestSessions_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("no cookie", func(t *testing.T) {
		sessions, _ := newTestSessions(t, time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := sessions.Organizer(ctx, req)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("tampered token", func(t *testing.T) {
		sessions, _ := newTestSessions(t, time.Hour)

		rec := httptest.NewRecorder()
		_, err := sessions.Issue(ctx, rec, uuid.Must(uuid.NewV7()), "", "")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		cookie := rec.Result().Cookies()[0]
		cookie.Value += "x"
		req.AddCookie(cookie)

		_, err = sessions.Organizer(ctx, req)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		sessions, sessionStore := newTestSessions(t, time.Hour)

		other, err := NewSessions(sessionStore, []byte("ffffffffffffffffffffffffffffffff"), time.Hour, false)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		_, err = other.Issue(ctx, rec, uuid.Must(uuid.NewV7()), "", "")
		require.NoError(t, err)

		_, err = sessions.Organizer(ctx, requestWithCookies(t, rec))
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("expired server-side row", func(t *testing.T) {
		sessions, _ := newTestSessions(t, time.Millisecond)

		rec := httptest.NewRecorder()
		_, err := sessions.Issue(ctx, rec, uuid.Must(uuid.NewV7()), "", "")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		_, err = sessions.Organizer(ctx, requestWithCookies(t, rec))
		require.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSessions_Revoke(t *testing.T) {
	ctx := context.Background()
	sessions, _ := newTestSessions(t, time.Hour)

	organizerID := uuid.Must(uuid.NewV7())

	rec := httptest.NewRecorder()
	_, err := sessions.Issue(ctx, rec, organizerID, "", "")
	require.NoError(t, err)

	req := requestWithCookies(t, rec)

	logoutRec := httptest.NewRecorder()
	require.NoError(t, sessions.Revoke(ctx, logoutRec, req))

	// Cookie is cleared on the logout response.
	cleared := logoutRec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)

	// The old token no longer resolves even though the JWT is unexpired.
	_, err = sessions.Organizer(ctx, req)
	require.ErrorIs(t, err, ErrNoSession)

	// Revoking again without a session is a no-op.
	require.NoError(t, sessions.Revoke(ctx, httptest.NewRecorder(), req))
}

func TestSessions_RevokeAll(t *testing.T) {
	ctx := context.Background()
	sessions, _ := newTestSessions(t, time.Hour)

	organizerID := uuid.Must(uuid.NewV7())

	var requests []*http.Request
	for range 3 {
		rec := httptest.NewRecorder()
		_, err := sessions.Issue(ctx, rec, organizerID, "", "")
		require.NoError(t, err)
		requests = append(requests, requestWithCookies(t, rec))
	}

	count, err := sessions.RevokeAll(ctx, httptest.NewRecorder(), organizerID)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	for _, req := range requests {
		_, err := sessions.Organizer(ctx, req)
		require.ErrorIs(t, err, ErrNoSession)
	}
}

func TestRequireOrganizer(t *testing.T) {
	ctx := context.Background()
	sessions, _ := newTestSessions(t, time.Hour)

	organizerID := uuid.Must(uuid.NewV7())

	var seen uuid.UUID
	handler := sessions.RequireOrganizer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := OrganizerFromContext(r.Context())
		require.True(t, ok)
		seen = id
	}))

	t.Run("without session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.Contains(t, rec.Body.String(), `"unauthorized"`)
	})

	t.Run("with session", func(t *testing.T) {
		issueRec := httptest.NewRecorder()
		_, err := sessions.Issue(ctx, issueRec, organizerID, "", "")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithCookies(t, issueRec))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, organizerID, seen)
	})
}
