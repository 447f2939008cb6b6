package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/repositories"
	"github.com/gamenight/backend/internal/sessions"
)

type testEnv struct {
	router       http.Handler
	coordinator  *sessions.Coordinator
	friends      *repositories.MemoryFriendDirectory
	sessions     *repositories.MemorySessionStore
	participants *repositories.MemoryParticipationStore
	invitations  *repositories.MemoryInvitationStore
}

func newTestEnv(t *testing.T, limiter RateLimiter) *testEnv {
	t.Helper()

	env := &testEnv{
		friends: repositories.NewMemoryFriendDirectory(append(repositories.DemoFriends,
			models.Friend{ID: 4, Name: "Dana", Email: "dana@example.com"},
		)...),
		participants: repositories.NewMemoryParticipationStore(),
		invitations:  repositories.NewMemoryInvitationStore(0),
	}
	env.sessions = repositories.NewMemorySessionStore(env.participants)
	env.coordinator = sessions.NewCoordinator(sessions.Stores{
		Friends:      env.friends,
		Sessions:     env.sessions,
		Participants: env.participants,
		Invitations:  env.invitations,
	}, nil)

	env.router = NewRouter(Dependencies{
		Coordinator: env.coordinator,
		Sessions:    env.sessions,
		Invitations: env.invitations,
		Friends:     env.friends,
		RateLimiter: limiter,
	})
	return env
}

func newTestRouter(t *testing.T) http.Handler {
	return newTestEnv(t, nil).router
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// createSession creates a session through the API and returns its id.
func (e *testEnv) createSession(t *testing.T, creatorID int, friendIDs ...int) int {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/sessions", map[string]any{
		"name":             "Friday board games",
		"creatorId":        creatorID,
		"initialFriendIds": friendIDs,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created struct {
		ID int `json:"id"`
	}
	decodeBody(t, rec, &created)
	return created.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

// failingCoordinator fails every call it overrides; the rest panic through the
// nil embedded interface.
type failingCoordinator struct {
	SessionCoordinator
}

var errBackend = errors.New("backend unavailable")

func (failingCoordinator) GetSession(context.Context, int) (models.GameSession, error) {
	return models.GameSession{}, errBackend
}

func (failingCoordinator) SweepExpired(context.Context) (int, error) {
	return 0, errBackend
}

func TestUnexpectedErrorsReturnInternalServerError(t *testing.T) {
	router := NewRouter(Dependencies{Coordinator: failingCoordinator{}})
	env := &testEnv{router: router}

	rec := env.do(t, http.MethodGet, "/api/sessions/1", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "failed to load session" {
		t.Fatalf("expected generic message got %q", msg)
	}

	rec = env.do(t, http.MethodPost, "/api/invitations/sweep", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestRateLimitedEndpointsReturnTooManyRequests(t *testing.T) {
	env := newTestEnv(t, denyLimiter{})

	cases := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/api/sessions"},
		{http.MethodPost, "/api/sessions/1/friends"},
		{http.MethodPost, "/api/sessions/1/invitations"},
		{http.MethodPost, "/api/invitations/1/respond"},
		{http.MethodPost, "/api/friends"},
	}
	for _, tc := range cases {
		rec := env.do(t, tc.method, tc.target, "{}")
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("%s %s: expected status %d got %d", tc.method, tc.target, http.StatusTooManyRequests, rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected reads to bypass the limiter got %d", rec.Code)
	}
}

func TestInvalidPathIDReturnsBadRequest(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, target := range []string{"/api/sessions/abc", "/api/sessions/0/friends", "/api/friends/-1"} {
		rec := env.do(t, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d got %d", target, http.StatusBadRequest, rec.Code)
		}
	}
}
