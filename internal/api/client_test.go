package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"lingua-client/internal/domain"
	"lingua-client/internal/store"
)

// fakeAPI emulates the platform's auth and profile endpoints closely enough
// to exercise the 401 recovery protocol.
type fakeAPI struct {
	mu             sync.Mutex
	accessToken    string // the token the server currently accepts
	refreshToken   string
	refreshCalls   int
	profileCalls   int
	failRefresh    bool
	rejectProfile  bool          // profile keeps returning an eligible 401 no matter the token
	legacyMessages bool          // 401 payloads carry only message text, no code
	refreshGate    chan struct{} // when set, refresh blocks until closed
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{accessToken: "access-0", refreshToken: "refresh-0"}
}

func (f *fakeAPI) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func (f *fakeAPI) profileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profileCalls
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", f.handleLogin)
	mux.HandleFunc("/api/auth/refresh", f.handleRefresh)
	mux.HandleFunc("/api/auth/profile", f.handleProfile)
	mux.HandleFunc("/api/forbidden", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "You do not have permission."})
	})
	mux.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No such thing."})
	})
	mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Something broke."})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Password != "Secret123" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password."})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  f.accessToken,
		"refresh_token": f.refreshToken,
		"user_id":       1,
		"email":         body.Email,
		"role":          "student",
	})
}

func (f *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.refreshCalls++
	calls := f.refreshCalls
	gate := f.refreshGate
	fail := f.failRefresh
	expected := "Bearer " + f.refreshToken
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail || r.Header.Get("Authorization") != expected {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Refresh token invalid."})
		return
	}

	f.mu.Lock()
	f.accessToken = fmt.Sprintf("access-%d", calls)
	token := f.accessToken
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (f *fakeAPI) handleProfile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.profileCalls++
	valid := "Bearer " + f.accessToken
	legacy := f.legacyMessages
	reject := f.rejectProfile
	f.mu.Unlock()

	if reject || r.Header.Get("Authorization") != valid {
		if legacy {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token has been revoked."})
		} else {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token has expired.", "code": "TOKEN_REVOKED"})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    1,
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Smith",
		"role":       "student",
		"is_active":  true,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type testEnv struct {
	api     *fakeAPI
	client  *Client
	tokens  *store.Memory
	expired *int
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	fake := newFakeAPI()
	srv := fake.server(t)
	tokens := store.NewMemory()
	expired := 0
	base := []Option{WithSessionExpiredHook(func() { expired++ })}
	client := New(srv.URL+"/api", tokens, append(base, opts...)...)
	return &testEnv{api: fake, client: client, tokens: tokens, expired: &expired}
}

func (e *testEnv) seed(t *testing.T, access, refresh string) {
	t.Helper()
	if err := e.tokens.Save(context.Background(), domain.TokenPair{AccessToken: access, RefreshToken: refresh}); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
}

func TestLoginStoresCredentialPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.client.Login(ctx, "alice@example.com", "Secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != "student" {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	pair, err := env.tokens.Load(ctx)
	if err != nil {
		t.Fatalf("load tokens: %v", err)
	}
	if pair.AccessToken != "access-0" || pair.RefreshToken != "refresh-0" {
		t.Fatalf("unexpected stored pair: %+v", pair)
	}

	// With stored credentials, an authenticated call succeeds directly.
	if _, err := env.client.Profile(ctx); err != nil {
		t.Fatalf("profile after login: %v", err)
	}
	if env.api.refreshCount() != 0 {
		t.Fatalf("no refresh expected, got %d", env.api.refreshCount())
	}
}

func TestLoginWrongPasswordClearsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, "stale", "refresh-0")

	_, err := env.client.Login(ctx, "alice@example.com", "wrong")
	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
	if _, err := env.tokens.Load(ctx); !errors.Is(err, domain.ErrNoCredentials) {
		t.Fatalf("expected credentials cleared, got %v", err)
	}
	if *env.expired != 1 {
		t.Fatalf("expected session-expired hook once, got %d", *env.expired)
	}
	if env.api.refreshCount() != 0 {
		t.Fatalf("wrong password must not trigger refresh, got %d calls", env.api.refreshCount())
	}
}

func TestExpiredTokenRefreshesAndRetriesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, "stale", "refresh-0")

	user, err := env.client.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if env.api.refreshCount() != 1 {
		t.Fatalf("expected 1 refresh call, got %d", env.api.refreshCount())
	}

	pair, err := env.tokens.Load(ctx)
	if err != nil {
		t.Fatalf("load tokens: %v", err)
	}
	if pair.AccessToken != "access-1" {
		t.Fatalf("expected rotated access token, got %q", pair.AccessToken)
	}
	if pair.RefreshToken != "refresh-0" {
		t.Fatalf("refresh token must be untouched, got %q", pair.RefreshToken)
	}
}

func TestLegacyMessageTextIsRefreshEligible(t *testing.T) {
	env := newTestEnv(t)
	env.api.legacyMessages = true
	ctx := context.Background()
	env.seed(t, "stale", "refresh-0")

	if _, err := env.client.Profile(ctx); err != nil {
		t.Fatalf("profile: %v", err)
	}
	if env.api.refreshCount() != 1 {
		t.Fatalf("expected refresh from legacy message, got %d calls", env.api.refreshCount())
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, "stale", "refresh-0")

	gate := make(chan struct{})
	env.api.refreshGate = gate

	const extra = 4
	g := errgroup.Group{}
	g.Go(func() error {
		_, err := env.client.Profile(ctx)
		return err
	})
	waitFor(t, func() bool {
		env.client.refresher.mu.Lock()
		defer env.client.refresher.mu.Unlock()
		return env.client.refresher.inFlight
	})

	for i := 0; i < extra; i++ {
		g.Go(func() error {
			_, err := env.client.Profile(ctx)
			return err
		})
	}
	waitFor(t, func() bool {
		env.client.refresher.mu.Lock()
		defer env.client.refresher.mu.Unlock()
		return len(env.client.refresher.queue) == extra
	})

	close(gate)
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent profiles: %v", err)
	}
	if env.api.refreshCount() != 1 {
		t.Fatalf("expected exactly 1 refresh for %d concurrent 401s, got %d", extra+1, env.api.refreshCount())
	}
	// Every request hit the 401 once and then retried once with the new token.
	if got := env.api.profileCount(); got != (extra+1)*2 {
		t.Fatalf("expected %d profile calls, got %d", (extra+1)*2, got)
	}
}

func TestRefreshFailureRejectsAllQueued(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, "stale", "refresh-0")

	gate := make(chan struct{})
	env.api.refreshGate = gate
	env.api.failRefresh = true

	const extra = 3
	errsCh := make(chan error, extra+1)
	go func() {
		_, err := env.client.Profile(ctx)
		errsCh <- err
	}()
	waitFor(t, func() bool {
		env.client.refresher.mu.Lock()
		defer env.client.refresher.mu.Unlock()
		return env.client.refresher.inFlight
	})
	for i := 0; i < extra; i++ {
		go func() {
			_, err := env.client.Profile(ctx)
			errsCh <- err
		}()
	}
	waitFor(t, func() bool {
		env.client.refresher.mu.Lock()
		defer env.client.refresher.mu.Unlock()
		return len(env.client.refresher.queue) == extra
	})

	close(gate)
	for i := 0; i < extra+1; i++ {
		err := <-errsCh
		var refreshErr *domain.RefreshError
		if !errors.As(err, &refreshErr) {
			t.Fatalf("expected RefreshError, got %v", err)
		}
	}
	if _, err := env.tokens.Load(ctx); !errors.Is(err, domain.ErrNoCredentials) {
		t.Fatalf("expected credentials cleared after failed refresh, got %v", err)
	}
	if *env.expired != 1 {
		t.Fatalf("expected session-expired hook once, got %d", *env.expired)
	}
	if env.api.refreshCount() != 1 {
		t.Fatalf("a failed refresh is never retried, got %d calls", env.api.refreshCount())
	}
}

func TestRetriedRequestDoesNotRefreshTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, "stale", "refresh-0")

	// The server refreshes happily but keeps rejecting the profile call
	// with an eligible 401, simulating a revoked account.
	env.api.rejectProfile = true

	_, err := env.client.Profile(ctx)
	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after exhausted retry, got %v", err)
	}
	if env.api.refreshCount() != 1 {
		t.Fatalf("retried request must not refresh again, got %d calls", env.api.refreshCount())
	}
}

func TestNon401ErrorsPassThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, "access-0", "refresh-0")

	cases := []struct {
		path   string
		status int
	}{
		{"/forbidden", http.StatusForbidden},
		{"/missing", http.StatusNotFound},
		{"/broken", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := env.client.do(ctx, http.MethodGet, tc.path, nil, nil)
		var httpErr *domain.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Status != tc.status {
			t.Fatalf("%s: expected HTTPError %d, got %v", tc.path, tc.status, err)
		}
	}
	if env.api.refreshCount() != 0 {
		t.Fatalf("passthrough errors must not refresh, got %d calls", env.api.refreshCount())
	}
	if _, err := env.tokens.Load(ctx); err != nil {
		t.Fatalf("credentials must survive passthrough errors: %v", err)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	tokens := store.NewMemory()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(srv.URL+"/api", tokens)

	err := client.do(context.Background(), http.MethodGet, "/anything", nil, nil)
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestHungRefreshFailsAfterTimeout(t *testing.T) {
	env := newTestEnv(t, WithRefreshTimeout(50*time.Millisecond))
	ctx := context.Background()
	env.seed(t, "stale", "refresh-0")

	gate := make(chan struct{})
	env.api.refreshGate = gate
	defer close(gate)

	start := time.Now()
	_, err := env.client.Profile(ctx)
	var refreshErr *domain.RefreshError
	if !errors.As(err, &refreshErr) {
		t.Fatalf("expected RefreshError from hung refresh, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("refresh timeout did not bound the wait, took %s", elapsed)
	}
}

func TestLogoutClearsCredentialsEvenOnServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tokens := store.NewMemory()
	ctx := context.Background()
	_ = tokens.Save(ctx, domain.TokenPair{AccessToken: "a", RefreshToken: "r"})
	client := New(srv.URL+"/api", tokens)

	err := client.Logout(ctx)
	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected server error surfaced, got %v", err)
	}
	if _, err := tokens.Load(ctx); !errors.Is(err, domain.ErrNoCredentials) {
		t.Fatalf("expected local credentials cleared, got %v", err)
	}
}

func TestDecodeHTTPErrorFallsBackToStatusText(t *testing.T) {
	err := decodeHTTPError(http.StatusBadGateway, []byte("not json"))
	if err.Status != http.StatusBadGateway {
		t.Fatalf("unexpected status %d", err.Status)
	}
	if !strings.Contains(err.Message, "Bad Gateway") {
		t.Fatalf("expected status text fallback, got %q", err.Message)
	}
}
