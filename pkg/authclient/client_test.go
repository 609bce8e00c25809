package authclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
)

// fakeAPI accepts exactly one access token at a time.
type fakeAPI struct {
	mu            sync.Mutex
	validToken    string
	refreshStatus int
	next          tokenResponse
	authHeaders   []string
	bodies        []string
	refreshBodies []string
	revoked       []string

	refreshHits   atomic.Int32
	protectedHits atomic.Int32
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		validToken:    "a1",
		refreshStatus: http.StatusOK,
		next:          tokenResponse{AccessToken: "a2", RefreshToken: "r2", TokenType: "bearer"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		if r.PostForm.Get("grant_type") != "password" || r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "Secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshHits.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.refreshBodies = append(f.refreshBodies, string(body))
		status, next := f.refreshStatus, f.next
		if status == http.StatusOK {
			f.validToken = next.AccessToken
		}
		f.mu.Unlock()
		if status != http.StatusOK {
			writeJSON(w, status, map[string]string{"detail": "Invalid refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, next)
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.revoked = append(f.revoked, in.Token)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	protected := func(w http.ResponseWriter, r *http.Request) {
		f.protectedHits.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.bodies = append(f.bodies, string(body))
		ok := r.Header.Get("Authorization") == "Bearer "+f.validToken
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})
	}
	mux.HandleFunc("GET /protected", protected)
	mux.HandleFunc("POST /protected", protected)
	mux.HandleFunc("GET /always-401", func(w http.ResponseWriter, r *http.Request) {
		f.protectedHits.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "nope"})
	})
	mux.HandleFunc("POST /reports/vote", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "You have already voted for this report"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) setValid(tok string) {
	f.mu.Lock()
	f.validToken = tok
	f.mu.Unlock()
}

func (f *fakeAPI) setRefresh(status int, next tokenResponse) {
	f.mu.Lock()
	f.refreshStatus = status
	f.next = next
	f.mu.Unlock()
}

func (f *fakeAPI) snapshot() (authHeaders, bodies, refreshBodies, revoked []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...),
		append([]string(nil), f.bodies...),
		append([]string(nil), f.refreshBodies...),
		append([]string(nil), f.revoked...)
}

func (f *fakeAPI) lastAuthHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.authHeaders) == 0 {
		return ""
	}
	return f.authHeaders[len(f.authHeaders)-1]
}

func seeded(t *testing.T, s Session) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), s))
	return store
}

func TestLogin_StoresTripleVerbatim(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, srv := newFakeAPI(t)

	store := NewMemoryStore()
	c := New(srv.URL, store)

	got, err := c.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"}, stored)
	assert.Equal(t, stored, got)
	assert.True(t, c.IsAuthenticated(ctx))
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, srv := newFakeAPI(t)

	store := NewMemoryStore()
	c := New(srv.URL, store)

	_, err := c.Login(ctx, "alice", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect username or password", apiErr.Detail)

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDo_AttachesBearerAfterLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)

	c := New(srv.URL, nil)
	s, err := c.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, s.AccessToken)

	var out map[string]string
	require.NoError(t, c.Do(ctx, http.MethodGet, "/protected", nil, &out))
	assert.Equal(t, "world", out["hello"])
	assert.Equal(t, "Bearer "+s.AccessToken, f.lastAuthHeader())
	assert.Zero(t, f.refreshHits.Load())
}

func TestDo_NoSessionSendsNoAuthorization(t *testing.T) {
	t.Parallel()
	f, srv := newFakeAPI(t)

	c := New(srv.URL, nil)
	err := c.Do(context.Background(), http.MethodGet, "/protected", nil, nil)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, "", f.lastAuthHeader())
	assert.Zero(t, f.refreshHits.Load())
}

func TestDo_RefreshesAndRetriesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)
	f.setValid("a2")

	store := seeded(t, Session{AccessToken: "expired", RefreshToken: "r1", TokenType: "bearer"})
	c := New(srv.URL, store)

	var out map[string]string
	require.NoError(t, c.Do(ctx, http.MethodGet, "/protected", nil, &out))
	assert.Equal(t, "world", out["hello"])

	assert.EqualValues(t, 1, f.refreshHits.Load())
	assert.EqualValues(t, 2, f.protectedHits.Load())
	headers, _, refreshBodies, _ := f.snapshot()
	assert.Equal(t, []string{"Bearer expired", "Bearer a2"}, headers)
	require.Len(t, refreshBodies, 1)
	assert.JSONEq(t, `{"token":"r1"}`, refreshBodies[0])

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{AccessToken: "a2", RefreshToken: "r2", TokenType: "bearer"}, stored)
}

func TestDo_LogsRetryEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)
	f.setValid("a2")

	var buf bytes.Buffer
	store := seeded(t, Session{AccessToken: "expired", RefreshToken: "r1", TokenType: "bearer"})
	c := New(srv.URL, store, WithLogger(logging.NewWithWriter(&buf, "debug")))
	require.NoError(t, c.Do(ctx, http.MethodGet, "/protected", nil, nil))

	var msgs []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec struct {
			Msg string `json:"msg"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		msgs = append(msgs, rec.Msg)
	}
	assert.Equal(t, []string{"refresh_start", "session_refreshed", "retry_with_new_token"}, msgs)
}

func TestDo_RetryResendsBody(t *testing.T) {
	t.Parallel()
	f, srv := newFakeAPI(t)
	f.setValid("a2")

	c := New(srv.URL, seeded(t, Session{AccessToken: "expired", RefreshToken: "r1", TokenType: "bearer"}))
	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/protected", map[string]int{"n": 1}, nil))

	_, bodies, _, _ := f.snapshot()
	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"n":1}`, bodies[0])
	assert.Equal(t, bodies[0], bodies[1])
}

func TestDo_SecondUnauthorizedIsNotRefreshedAgain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)

	store := seeded(t, Session{AccessToken: "expired", RefreshToken: "r1", TokenType: "bearer"})
	c := New(srv.URL, store)

	err := c.Do(ctx, http.MethodGet, "/always-401", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "nope", apiErr.Detail)

	assert.EqualValues(t, 1, f.refreshHits.Load())
	assert.EqualValues(t, 2, f.protectedHits.Load())

	// the refreshed session is kept
	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", stored.AccessToken)
}

func TestDo_NoRefreshTokenClearsWithoutNetwork(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)

	store := seeded(t, Session{AccessToken: "expired", TokenType: "bearer"})
	c := New(srv.URL, store)

	err := c.Do(ctx, http.MethodGet, "/protected", nil, nil)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Zero(t, f.refreshHits.Load())
	assert.EqualValues(t, 1, f.protectedHits.Load())

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, c.IsAuthenticated(ctx))
}

func TestDo_RefreshFailureClearsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)
	f.setRefresh(http.StatusUnauthorized, tokenResponse{})

	store := seeded(t, Session{AccessToken: "expired", RefreshToken: "r1", TokenType: "bearer"})
	c := New(srv.URL, store)

	err := c.Do(ctx, http.MethodGet, "/protected", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Could not validate credentials", apiErr.Detail)
	assert.ErrorIs(t, err, ErrRefreshFailed)

	assert.EqualValues(t, 1, f.refreshHits.Load())
	assert.EqualValues(t, 1, f.protectedHits.Load())
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	t.Parallel()
	f, srv := newFakeAPI(t)
	f.setValid("a2")

	c := New(srv.URL, seeded(t, Session{AccessToken: "expired", RefreshToken: "r1", TokenType: "bearer"}))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Do(context.Background(), http.MethodGet, "/protected", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, f.refreshHits.Load())
}

func TestDo_BusinessErrorPassedThrough(t *testing.T) {
	t.Parallel()
	f, srv := newFakeAPI(t)

	c := New(srv.URL, seeded(t, Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"}))
	_, err := c.Vote(context.Background(), 3)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "You have already voted for this report", apiErr.Detail)
	assert.Zero(t, f.refreshHits.Load())
}

func TestDo_TransportFailure(t *testing.T) {
	t.Parallel()
	_, srv := newFakeAPI(t)
	url := srv.URL
	srv.Close()

	c := New(url, nil)
	err := c.Do(context.Background(), http.MethodGet, "/protected", nil, nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Contains(t, err.Error(), "request failed")
}

func TestRefresh_OverwritesAllFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)
	f.setRefresh(http.StatusOK, tokenResponse{AccessToken: "a9", RefreshToken: "r9", TokenType: "Bearer"})

	store := seeded(t, Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"})
	c := New(srv.URL, store)

	got, err := c.Refresh(ctx)
	require.NoError(t, err)
	want := Session{AccessToken: "a9", RefreshToken: "r9", TokenType: "Bearer"}
	assert.Equal(t, want, got)

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, stored)

	require.NoError(t, c.Do(ctx, http.MethodGet, "/protected", nil, nil))
	assert.Equal(t, "Bearer a9", f.lastAuthHeader())
}

func TestRefresh_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)
	f.setRefresh(http.StatusOK, tokenResponse{AccessToken: "a3", TokenType: "bearer"})

	store := seeded(t, Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"})
	_, err := New(srv.URL, store).Refresh(ctx)
	require.NoError(t, err)

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", stored.RefreshToken)
}

func TestRefresh_WithoutSession(t *testing.T) {
	t.Parallel()
	f, srv := newFakeAPI(t)

	_, err := New(srv.URL, nil).Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrNoRefreshToken))
	assert.Zero(t, f.refreshHits.Load())
}

// brokenSetStore stores the seed session and then rejects every write.
type brokenSetStore struct {
	*MemoryStore
}

func (b brokenSetStore) Set(context.Context, Session) error {
	return errors.New("disk full")
}

func TestRefresh_StoreFailureClearsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)

	mem := seeded(t, Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"})
	c := New(srv.URL, brokenSetStore{mem})

	_, err := c.Refresh(ctx)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.EqualValues(t, 1, f.refreshHits.Load())

	_, err = mem.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, c.IsAuthenticated(ctx))
}

func TestMemoryStore_RejectsEmptySession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := seeded(t, Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"})

	assert.ErrorIs(t, store.Set(ctx, Session{RefreshToken: "r2"}), ErrEmptySession)
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AccessToken)
}

func TestAPIError_Unauthorized(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, false},
		{http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, newAPIError(tt.status, nil).Unauthorized(), tt.status)
	}
}

func TestLogout_ClearsAllFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeAPI(t)

	store := NewMemoryStore()
	c := New(srv.URL, store)
	_, err := c.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, c.IsAuthenticated(ctx))
	_, _, _, revoked := f.snapshot()
	assert.Equal(t, []string{"r1"}, revoked)
}

func TestLogout_ServerDownStillClears(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, srv := newFakeAPI(t)
	url := srv.URL
	srv.Close()

	store := seeded(t, Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"})
	require.NoError(t, New(url, store).Logout(ctx))
	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentUser_RequiresSession(t *testing.T) {
	t.Parallel()
	_, srv := newFakeAPI(t)

	_, err := New(srv.URL, nil).CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestDetailFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Report not found"}`, "Report not found"},
		{"echo message", `{"message":"Not Found"}`, "Not Found"},
		{"structured", `{"detail":[{"loc":["body","title"]}]}`, `[{"loc":["body","title"]}]`},
		{"plain text", `boom`, "boom"},
		{"empty", ``, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detailFrom(http.StatusInternalServerError, []byte(tt.body)))
		})
	}
}
