package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/khuwani/internal/auth"
	"github.com/wolfeidau/khuwani/internal/khuwani"
	"github.com/wolfeidau/khuwani/internal/store/memory"
	"golang.org/x/crypto/bcrypt"
)

// testClient wraps an httptest server with a cookie jar so organizer
// sessions survive across requests, like a browser.
type testClient struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	organizers := memory.NewOrganizerStore()
	khuwanies := memory.NewKhuwaniStore()
	claims := memory.NewClaimStore()
	khuwanies.SetClaimStore(claims)

	service := khuwani.NewService(khuwanies, claims)
	gate := auth.NewGate(organizers, bcrypt.MinCost)

	sessions, err := auth.NewSessions(memory.NewSessionStore(), []byte("0123456789abcdef0123456789abcdef"), time.Hour, false)
	require.NoError(t, err)

	srv := NewServer(Config{}, service, gate, sessions)
	ts := httptest.NewServer(srv.Handler(zerolog.Nop()))
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testClient{
		t:      t,
		server: ts,
		client: &http.Client{Jar: jar},
	}
}

// do sends a JSON request and decodes the JSON response into out (when out
// is non-nil), returning the status code.
func (c *testClient) do(method, path string, body, out any) int {
	c.t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(c.t, err)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reqBody)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// anon sends a request without the cookie jar, simulating an anonymous
// participant or a logged-out visitor.
func (c *testClient) anon(method, path string, body, out any) int {
	c.t.Helper()

	jarred := c.client
	c.client = c.server.Client()
	defer func() { c.client = jarred }()

	return c.do(method, path, body, out)
}

func errorCode(t *testing.T, raw map[string]any) string {
	t.Helper()

	detail, ok := raw["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", raw)
	code, _ := detail["code"].(string)
	return code
}

func TestServer_Healthz(t *testing.T) {
	c := newTestClient(t)

	var body map[string]any
	status := c.anon(http.MethodGet, "/healthz", nil, &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body["status"])
}

// TestServer_KhuwaniLifecycle walks the full organizer and participant
// flow: register, create a khuwani for a dedicatee, share the slug, claim
// and release anonymously, grow it, reset it, delete it.
func TestServer_KhuwaniLifecycle(t *testing.T) {
	c := newTestClient(t)

	// Register the organizer; the response sets the session cookie.
	var organizer organizerResponse
	status := c.do(http.MethodPost, "/api/register", registerRequest{
		Email:           "organizer@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, &organizer)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "organizer@example.com", organizer.Email)

	// Create a khuwani dedicated to Haji Abdul Rehman.
	var created khuwaniResponse
	status = c.do(http.MethodPost, "/api/khuwanies", createKhuwaniRequest{
		DedicateeName: "Haji Abdul Rehman",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Contains(t, created.Slug, "haji-abdul-rehman-")
	require.Equal(t, 1, created.QuranCount)

	shareBase := "/api/k/" + created.Slug

	// Ahmed claims sipara 5 anonymously through the share link.
	var claim claimResponse
	status = c.anon(http.MethodPost, shareBase+"/claims", slotRequest{
		QuranNumber:     1,
		SiparaNumber:    5,
		ParticipantName: "Ahmed",
	}, &claim)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "Ahmed", claim.ParticipantName)

	// Fatima tries the same slot and loses.
	var raw map[string]any
	status = c.anon(http.MethodPost, shareBase+"/claims", slotRequest{
		QuranNumber:     1,
		SiparaNumber:    5,
		ParticipantName: "Fatima",
	}, &raw)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "slot_taken", errorCode(t, raw))

	// The participant view shows Ahmed on sipara 5.
	var view viewResponse
	status = c.anon(http.MethodGet, shareBase, nil, &view)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, view.Summary.ClaimedCount)
	require.Len(t, view.Qurans, 1)
	require.Equal(t, "Ahmed", view.Qurans[0].Siparas[4].ParticipantName)
	require.Equal(t, 3, view.Summary.Percent) // 1/30 rounds to 3

	// Quran instance 2 does not exist yet.
	status = c.anon(http.MethodPost, shareBase+"/claims", slotRequest{
		QuranNumber:     2,
		SiparaNumber:    1,
		ParticipantName: "Bilal",
	}, &raw)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "invalid_slot", errorCode(t, raw))

	// The organizer adds a second instance; now the claim lands.
	var summary summaryResponse
	status = c.do(http.MethodPost, "/api/khuwanies/"+created.KhuwaniID+"/quran", nil, &summary)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, summary.QuranCount)
	require.Equal(t, 60, summary.TotalSlots)

	status = c.anon(http.MethodPost, shareBase+"/claims", slotRequest{
		QuranNumber:     2,
		SiparaNumber:    1,
		ParticipantName: "Bilal",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// Ahmed releases by naming the claim; the slot opens and Fatima takes it.
	var release releaseResponse
	status = c.anon(http.MethodPost, shareBase+"/release", slotRequest{
		QuranNumber:     1,
		SiparaNumber:    5,
		ParticipantName: "Ahmed",
	}, &release)
	require.Equal(t, http.StatusOK, status)
	require.True(t, release.Released)

	status = c.anon(http.MethodPost, shareBase+"/claims", slotRequest{
		QuranNumber:     1,
		SiparaNumber:    5,
		ParticipantName: "Fatima",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// Releasing a slot nobody holds under that name is a miss, not an error.
	status = c.anon(http.MethodPost, shareBase+"/release", slotRequest{
		QuranNumber:     1,
		SiparaNumber:    5,
		ParticipantName: "Ahmed",
	}, &release)
	require.Equal(t, http.StatusOK, status)
	require.False(t, release.Released)

	// Dashboard shows one khuwani with 2 of 60 claimed.
	var summaries []summaryResponse
	status = c.do(http.MethodGet, "/api/khuwanies", nil, &summaries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, summaries, 1)
	require.Equal(t, 2, summaries[0].ClaimedCount)

	// Reset clears every claim but keeps both instances.
	var reset resetResponse
	status = c.do(http.MethodPost, "/api/khuwanies/"+created.KhuwaniID+"/reset", nil, &reset)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, reset.ClaimsRemoved)

	status = c.do(http.MethodGet, "/api/khuwanies/"+created.KhuwaniID, nil, &view)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 0, view.Summary.ClaimedCount)
	require.Equal(t, 2, view.Summary.QuranCount)

	// Delete; the share link dies with it.
	status = c.do(http.MethodDelete, "/api/khuwanies/"+created.KhuwaniID, nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	status = c.anon(http.MethodGet, shareBase, nil, &raw)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", errorCode(t, raw))
}

func TestServer_AuthFlows(t *testing.T) {
	c := newTestClient(t)

	t.Run("organizer routes reject anonymous requests", func(t *testing.T) {
		var raw map[string]any
		status := c.anon(http.MethodPost, "/api/khuwanies", createKhuwaniRequest{DedicateeName: "x"}, &raw)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "unauthorized", errorCode(t, raw))

		status = c.anon(http.MethodGet, "/api/me", nil, &raw)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("register validates input", func(t *testing.T) {
		var raw map[string]any
		status := c.anon(http.MethodPost, "/api/register", registerRequest{
			Email:           "bad",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}, &raw)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "validation_failed", errorCode(t, raw))
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		status := c.anon(http.MethodPost, "/api/register", registerRequest{
			Email:           "taken@example.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, status)

		var raw map[string]any
		status = c.anon(http.MethodPost, "/api/register", registerRequest{
			Email:           "taken@example.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}, &raw)
		require.Equal(t, http.StatusConflict, status)
		require.Equal(t, "email_taken", errorCode(t, raw))
	})

	t.Run("login logout round trip", func(t *testing.T) {
		status := c.do(http.MethodPost, "/api/register", registerRequest{
			Email:           "roundtrip@example.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, status)

		status = c.do(http.MethodPost, "/api/logout", nil, nil)
		require.Equal(t, http.StatusNoContent, status)

		status = c.do(http.MethodGet, "/api/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, status)

		var raw map[string]any
		status = c.do(http.MethodPost, "/api/login", loginRequest{
			Email:    "roundtrip@example.com",
			Password: "wrong",
		}, &raw)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "unauthorized", errorCode(t, raw))

		var organizer organizerResponse
		status = c.do(http.MethodPost, "/api/login", loginRequest{
			Email:    "roundtrip@example.com",
			Password: "secret1",
		}, &organizer)
		require.Equal(t, http.StatusOK, status)

		var me organizerResponse
		status = c.do(http.MethodGet, "/api/me", nil, &me)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "roundtrip@example.com", me.Email)
	})
}

func TestServer_OwnershipAndErrors(t *testing.T) {
	c := newTestClient(t)

	status := c.do(http.MethodPost, "/api/register", registerRequest{
		Email:           "owner@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var created khuwaniResponse
	status = c.do(http.MethodPost, "/api/khuwanies", createKhuwaniRequest{DedicateeName: "Bibi Amina"}, &created)
	require.Equal(t, http.StatusCreated, status)

	t.Run("another organizer cannot see or mutate it", func(t *testing.T) {
		status := c.do(http.MethodPost, "/api/logout", nil, nil)
		require.Equal(t, http.StatusNoContent, status)

		status = c.do(http.MethodPost, "/api/register", registerRequest{
			Email:           "intruder@example.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, status)

		var raw map[string]any
		status = c.do(http.MethodGet, "/api/khuwanies/"+created.KhuwaniID, nil, &raw)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "not_found", errorCode(t, raw))

		status = c.do(http.MethodDelete, "/api/khuwanies/"+created.KhuwaniID, nil, &raw)
		require.Equal(t, http.StatusNotFound, status)

		status = c.do(http.MethodPost, "/api/khuwanies/"+created.KhuwaniID+"/quran", nil, &raw)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("malformed khuwani id reads as not found", func(t *testing.T) {
		var raw map[string]any
		status := c.do(http.MethodGet, "/api/khuwanies/not-a-uuid", nil, &raw)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "not_found", errorCode(t, raw))
	})

	t.Run("malformed JSON body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, c.server.URL+"/api/login", bytes.NewBufferString("{not json"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty participant name on claim", func(t *testing.T) {
		// Recreate under the current identity to get a live slug.
		var k khuwaniResponse
		status := c.do(http.MethodPost, "/api/khuwanies", createKhuwaniRequest{DedicateeName: "Dada Jan"}, &k)
		require.Equal(t, http.StatusCreated, status)

		var raw map[string]any
		status = c.anon(http.MethodPost, "/api/k/"+k.Slug+"/claims", slotRequest{
			QuranNumber:     1,
			SiparaNumber:    1,
			ParticipantName: "   ",
		}, &raw)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "validation_failed", errorCode(t, raw))
	})

	t.Run("unknown slug", func(t *testing.T) {
		var raw map[string]any
		status := c.anon(http.MethodGet, "/api/k/no-such-slug", nil, &raw)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "not_found", errorCode(t, raw))

		status = c.anon(http.MethodPost, "/api/k/no-such-slug/claims", slotRequest{
			QuranNumber:     1,
			SiparaNumber:    1,
			ParticipantName: "Ahmed",
		}, &raw)
		require.Equal(t, http.StatusNotFound, status)
	})
}

func TestServer_ConcurrentClaims(t *testing.T) {
	c := newTestClient(t)

	status := c.do(http.MethodPost, "/api/register", registerRequest{
		Email:           "race@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var created khuwaniResponse
	status = c.do(http.MethodPost, "/api/khuwanies", createKhuwaniRequest{DedicateeName: "Race"}, &created)
	require.Equal(t, http.StatusCreated, status)

	const contenders = 10

	results := make(chan int, contenders)
	start := make(chan struct{})

	for i := range contenders {
		go func() {
			<-start

			body, _ := json.Marshal(slotRequest{
				QuranNumber:     1,
				SiparaNumber:    7,
				ParticipantName: fmt.Sprintf("participant-%d", i),
			})
			resp, err := c.server.Client().Post(c.server.URL+"/api/k/"+created.Slug+"/claims", "application/json", bytes.NewReader(body))
			if err != nil {
				results <- 0
				return
			}
			resp.Body.Close()
			results <- resp.StatusCode
		}()
	}
	close(start)

	var won, lost int
	for range contenders {
		switch <-results {
		case http.StatusCreated:
			won++
		case http.StatusConflict:
			lost++
		}
	}

	require.Equal(t, 1, won, "exactly one contender should win the slot")
	require.Equal(t, contenders-1, lost)
}
