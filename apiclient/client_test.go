package apiclient_test

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

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/stretchr/testify/require"
)

const (
	oldToken = "tok1"
	newToken = "tok2"
)

// memStore is a minimal SessionStore.
type memStore struct {
	mu       sync.Mutex
	cred     *credential.Credential
	epoch    uint64
	installs int
}

func newMemStore(token string) *memStore {
	s := &memStore{}
	if token != "" {
		c := credential.Parse(token)
		s.cred = &c
	}
	return s
}

func (s *memStore) Credential() (credential.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return credential.Credential{}, false
	}
	return *s.cred, true
}

func (s *memStore) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *memStore) Renew(epoch uint64, grant *session.Grant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false, nil
	}
	c := grant.Credential
	s.cred = &c
	s.installs++
	return true, nil
}

// login replaces the credential as a new session.
func (s *memStore) login(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := credential.Parse(token)
	s.cred = &c
	s.epoch++
}

func (s *memStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	s.epoch++
}

// fakeRefresher hands out newToken, optionally blocking until released.
type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	token   string
	err     error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*session.Grant, error) {
	f.mu.Lock()
	f.calls++
	release, token, err := f.release, f.token, f.err
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &session.Grant{Credential: credential.Parse(token)}, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// hit is one request seen by the API server.
type hit struct {
	Path   string
	Bearer string
}

// apiServer accepts only the bearer in valid and records every hit.
type apiServer struct {
	*httptest.Server

	mu    sync.Mutex
	valid string
	hits  []hit
}

func newAPIServer(t *testing.T, valid string) *apiServer {
	t.Helper()

	s := &apiServer{valid: valid}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		s.hits = append(s.hits, hit{Path: r.URL.Path, Bearer: bearer})
		valid := s.valid
		s.mu.Unlock()

		switch {
		case r.URL.Path == "/boom":
			http.Error(w, `{"message":"exploded"}`, http.StatusInternalServerError)
			return
		case r.URL.Path == "/missing":
			http.Error(w, `{"message":"no such thing"}`, http.StatusNotFound)
			return
		case r.URL.Path == "/slow":
			time.Sleep(200 * time.Millisecond)
		}

		if bearer != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"path": r.URL.Path, "bearer": bearer})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) hitsFor(path string) []hit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []hit
	for _, h := range s.hits {
		if h.Path == path {
			out = append(out, h)
		}
	}
	return out
}

func (s *apiServer) hitsWith(bearer string) []hit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []hit
	for _, h := range s.hits {
		if h.Bearer == bearer {
			out = append(out, h)
		}
	}
	return out
}

type testFixture struct {
	server    *apiServer
	store     *memStore
	refresher *fakeRefresher
	client    *apiclient.Client
}

func setupTestFixture(t *testing.T, options ...apiclient.ClientOption) *testFixture {
	t.Helper()

	f := &testFixture{
		server:    newAPIServer(t, newToken),
		store:     newMemStore(oldToken),
		refresher: &fakeRefresher{token: newToken},
	}
	client, err := apiclient.NewClient(f.server.URL, f.store, f.refresher, options...)
	require.NoError(t, err)
	f.client = client
	return f
}

// blockRefresh makes the next refresh wait until the returned func is called.
func (f *testFixture) blockRefresh() func() {
	release := make(chan struct{})
	f.refresher.mu.Lock()
	f.refresher.release = release
	f.refresher.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(release) }) }
}

type outcome struct {
	resp *apiclient.Response
	err  error
}

func (f *testFixture) goGet(ctx context.Context, path string) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		resp, err := f.client.Get(ctx, path)
		ch <- outcome{resp: resp, err: err}
	}()
	return ch
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond, msg)
}

func TestNewClientValidation(t *testing.T) {
	_, err := apiclient.NewClient("", newMemStore(""), &fakeRefresher{})
	require.Error(t, err)
	_, err = apiclient.NewClient("http://localhost", nil, &fakeRefresher{})
	require.Error(t, err)
	_, err = apiclient.NewClient("http://localhost", newMemStore(""), nil)
	require.Error(t, err)
	_, err = apiclient.NewClient("http://localhost", newMemStore(""), &fakeRefresher{}, apiclient.WithHTTPClient(nil))
	require.Error(t, err)
}

func TestAttachesCurrentCredential(t *testing.T) {
	f := setupTestFixture(t)
	f.store = newMemStore(newToken)
	client, err := apiclient.NewClient(f.server.URL, f.store, f.refresher)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/api/profile")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)

	var body map[string]string
	require.NoError(t, resp.Decode(&body))
	require.Equal(t, newToken, body["bearer"])
	require.Equal(t, 0, f.refresher.callCount())
}

func TestAnonymousRequestHasNoAuthorization(t *testing.T) {
	server := newAPIServer(t, "")
	client, err := apiclient.NewClient(server.URL, newMemStore(""), &fakeRefresher{token: newToken})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/public")
	require.NoError(t, err)
	require.Equal(t, []hit{{Path: "/public", Bearer: ""}}, server.hitsFor("/public"))
}

func TestUnauthorizedIsRefreshedTransparently(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.client.Get(context.Background(), "/api/profile")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)

	require.Equal(t, 1, f.refresher.callCount())
	require.Equal(t, []hit{
		{Path: "/api/profile", Bearer: oldToken},
		{Path: "/api/profile", Bearer: newToken},
	}, f.server.hitsFor("/api/profile"))

	cred, ok := f.store.Credential()
	require.True(t, ok)
	require.Equal(t, newToken, cred.Token)
	require.Equal(t, 1, f.store.installs)
}

func TestSingleFlightRefresh(t *testing.T) {
	f := setupTestFixture(t)
	release := f.blockRefresh()
	defer release()

	const n = 8
	results := make([]<-chan outcome, n)
	for i := 0; i < n; i++ {
		results[i] = f.goGet(context.Background(), fmt.Sprintf("/items/%d", i))
	}

	coordinator := f.client.Coordinator()
	waitFor(t, func() bool { return coordinator.InFlight() && coordinator.Pending() == n-1 }, "all requests queued behind one refresh")
	release()

	for i := 0; i < n; i++ {
		out := <-results[i]
		require.NoError(t, out.err)
		require.Equal(t, http.StatusOK, out.resp.Status)

		hits := f.server.hitsFor(fmt.Sprintf("/items/%d", i))
		require.Equal(t, []hit{
			{Path: fmt.Sprintf("/items/%d", i), Bearer: oldToken},
			{Path: fmt.Sprintf("/items/%d", i), Bearer: newToken},
		}, hits, "each request replayed exactly once")
	}

	require.Equal(t, 1, f.refresher.callCount())
	require.Equal(t, 1, coordinator.Refreshes())
	require.False(t, coordinator.InFlight())
	require.Zero(t, coordinator.Pending())
}

func TestReplayThatFailsAgainIsSurfaced(t *testing.T) {
	f := setupTestFixture(t)
	f.refresher.token = "tok-still-rejected"

	_, err := f.client.Get(context.Background(), "/api/profile")
	require.Error(t, err)
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)

	var httpErr *apierrors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.Status)

	require.Equal(t, 1, f.refresher.callCount(), "no second refresh for a retried request")
	require.Len(t, f.server.hitsFor("/api/profile"), 2)
	require.False(t, f.client.Coordinator().InFlight())
}

func TestWaitersReplayInArrivalOrder(t *testing.T) {
	f := setupTestFixture(t, apiclient.WithDispatcher(apiclient.InlineDispatcher))
	release := f.blockRefresh()
	defer release()
	coordinator := f.client.Coordinator()

	trigger := f.goGet(context.Background(), "/a")
	waitFor(t, coordinator.InFlight, "refresh started")

	var waiters []<-chan outcome
	for i, path := range []string{"/b", "/c", "/d"} {
		waiters = append(waiters, f.goGet(context.Background(), path))
		want := i + 1
		waitFor(t, func() bool { return coordinator.Pending() == want }, "waiter queued")
	}
	release()

	require.NoError(t, (<-trigger).err)
	for _, ch := range waiters {
		require.NoError(t, (<-ch).err)
	}

	var order []string
	for _, h := range f.server.hitsWith(newToken) {
		order = append(order, h.Path)
	}
	require.Equal(t, []string{"/a", "/b", "/c", "/d"}, order)
}

func TestRefreshFailureFansOut(t *testing.T) {
	var expired []error
	var expiredMu sync.Mutex
	f := setupTestFixture(t, apiclient.WithSessionExpiredHandler(func(err error) {
		expiredMu.Lock()
		defer expiredMu.Unlock()
		expired = append(expired, err)
	}))
	f.refresher.err = errors.New("refresh cookie rejected")
	release := f.blockRefresh()
	defer release()
	coordinator := f.client.Coordinator()

	const n = 5
	results := make([]<-chan outcome, n)
	for i := 0; i < n; i++ {
		results[i] = f.goGet(context.Background(), fmt.Sprintf("/items/%d", i))
	}
	waitFor(t, func() bool { return coordinator.Pending() == n-1 }, "waiters queued")
	release()

	for i := 0; i < n; i++ {
		select {
		case out := <-results[i]:
			require.ErrorIs(t, out.err, apierrors.ErrRefreshFailed)
			require.Nil(t, out.resp)
		case <-time.After(2 * time.Second):
			t.Fatalf("request %d never settled", i)
		}
	}

	require.False(t, coordinator.InFlight())
	require.Zero(t, coordinator.Pending())
	expiredMu.Lock()
	require.Len(t, expired, 1)
	expiredMu.Unlock()

	// A second burst starts a fresh refresh rather than hanging
	_, err := f.client.Get(context.Background(), "/again")
	require.ErrorIs(t, err, apierrors.ErrRefreshFailed)
	require.Equal(t, 2, f.refresher.callCount())
}

func TestRequestAfterRefreshUsesNewCredential(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.Get(context.Background(), "/first")
	require.NoError(t, err)

	_, err = f.client.Get(context.Background(), "/second")
	require.NoError(t, err)
	require.Equal(t, []hit{{Path: "/second", Bearer: newToken}}, f.server.hitsFor("/second"))
	require.Equal(t, 1, f.refresher.callCount())
}

func TestStaleUnauthorizedReplaysWithoutRefresh(t *testing.T) {
	f := setupTestFixture(t)

	// /slow goes out with tok1; the credential is replaced before its 401 arrives
	pending := f.goGet(context.Background(), "/slow")
	waitFor(t, func() bool { return len(f.server.hitsFor("/slow")) == 1 }, "slow request sent")
	f.store.login(newToken)

	out := <-pending
	require.NoError(t, out.err)
	require.Equal(t, 0, f.refresher.callCount())
	require.Equal(t, []hit{
		{Path: "/slow", Bearer: oldToken},
		{Path: "/slow", Bearer: newToken},
	}, f.server.hitsFor("/slow"))
}

func TestNonAuthErrorsPassThrough(t *testing.T) {
	f := setupTestFixture(t)
	f.store = newMemStore(newToken)
	client, err := apiclient.NewClient(f.server.URL, f.store, f.refresher)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/boom")
	require.ErrorIs(t, err, apierrors.ErrServerError)
	var httpErr *apierrors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, "exploded", httpErr.Message)

	_, err = client.Get(context.Background(), "/missing")
	require.ErrorIs(t, err, apierrors.ErrHTTP)
	require.NotErrorIs(t, err, apierrors.ErrUnauthorized)

	require.Equal(t, 0, f.refresher.callCount())
	require.Len(t, f.server.hitsFor("/boom"), 1, "no retry")
}

func TestNetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	refresher := &fakeRefresher{token: newToken}
	client, err := apiclient.NewClient(url, newMemStore(oldToken), refresher)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/api/profile")
	require.ErrorIs(t, err, apierrors.ErrNetworkUnavailable)
	require.Equal(t, 0, refresher.callCount())
}

func TestTimeoutFailsWithoutJoiningQueue(t *testing.T) {
	f := setupTestFixture(t)
	client, err := apiclient.NewClient(f.server.URL, f.store, f.refresher,
		apiclient.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/slow")
	require.ErrorIs(t, err, apierrors.ErrRequestTimeout)
	require.Equal(t, 0, f.refresher.callCount())
	require.Zero(t, client.Coordinator().Pending())
}

func TestSkipRefreshPaths(t *testing.T) {
	f := setupTestFixture(t, apiclient.WithSkipRefresh(func(path string) bool {
		return strings.HasPrefix(path, "/auth/")
	}))

	_, err := f.client.Post(context.Background(), "/auth/login/staff", map[string]string{"username": "U1"})
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)
	require.Equal(t, 0, f.refresher.callCount())
}

func TestAbandonedWaiterDoesNotBlockOthers(t *testing.T) {
	f := setupTestFixture(t)
	release := f.blockRefresh()
	defer release()
	coordinator := f.client.Coordinator()

	trigger := f.goGet(context.Background(), "/a")
	waitFor(t, coordinator.InFlight, "refresh started")

	ctx, cancel := context.WithCancel(context.Background())
	abandoned := f.goGet(ctx, "/b")
	waitFor(t, func() bool { return coordinator.Pending() == 1 }, "waiter queued")
	cancel()
	require.ErrorIs(t, (<-abandoned).err, context.Canceled)

	other := f.goGet(context.Background(), "/c")
	waitFor(t, func() bool { return coordinator.Pending() == 2 }, "second waiter queued")
	release()

	require.NoError(t, (<-trigger).err)
	require.NoError(t, (<-other).err)
	waitFor(t, func() bool { return !coordinator.InFlight() }, "refresh settled")
	require.Equal(t, 1, f.refresher.callCount())
}

func TestExpiredHandlerClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.refresher.err = errors.New("expired")
	client, err := apiclient.NewClient(f.server.URL, f.store, f.refresher,
		apiclient.WithSessionExpiredHandler(func(error) { f.store.clear() }))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/api/profile")
	require.ErrorIs(t, err, apierrors.ErrRefreshFailed)
	_, ok := f.store.Credential()
	require.False(t, ok)
}

func TestLogoutDuringRefreshDropsRefreshedCredential(t *testing.T) {
	f := setupTestFixture(t)
	release := f.blockRefresh()
	defer release()

	pending := f.goGet(context.Background(), "/api/profile")
	waitFor(t, func() bool { return f.client.Coordinator().InFlight() }, "refresh started")
	f.store.clear()
	release()

	out := <-pending
	require.ErrorIs(t, out.err, apierrors.ErrNotAuthenticated)
	_, ok := f.store.Credential()
	require.False(t, ok, "signed-out session stays signed out")
	require.Len(t, f.server.hitsFor("/api/profile"), 1, "nothing replayed")
	require.False(t, f.client.Coordinator().InFlight())
}

func TestLoginDuringRefreshKeepsNewSession(t *testing.T) {
	f := setupTestFixture(t)
	f.refresher.token = "tok-stale"
	release := f.blockRefresh()
	defer release()

	pending := f.goGet(context.Background(), "/api/profile")
	waitFor(t, func() bool { return f.client.Coordinator().InFlight() }, "refresh started")
	f.store.login(newToken)
	release()

	out := <-pending
	require.NoError(t, out.err)
	cred, ok := f.store.Credential()
	require.True(t, ok)
	require.Equal(t, newToken, cred.Token)
	require.Equal(t, []hit{
		{Path: "/api/profile", Bearer: oldToken},
		{Path: "/api/profile", Bearer: newToken},
	}, f.server.hitsFor("/api/profile"))
}

func TestRequestBodyIsReplayed(t *testing.T) {
	var bodies, contentTypes, requestIDs []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		bodies = append(bodies, payload["kode"])
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		requestIDs = append(requestIDs, r.Header.Get(apiclient.RequestIDHeader))
		mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+newToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client, err := apiclient.NewClient(server.URL, newMemStore(oldToken), &fakeRefresher{token: newToken})
	require.NoError(t, err)

	resp, err := client.Post(context.Background(), "/add/cpl", map[string]string{"kode": "CPL-01"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status)
	require.Equal(t, []string{"CPL-01", "CPL-01"}, bodies)
	require.Equal(t, []string{"application/json", "application/json"}, contentTypes)
	require.Len(t, requestIDs, 2)
	require.NotEmpty(t, requestIDs[0])
	require.NotEqual(t, requestIDs[0], requestIDs[1], "each attempt gets its own id")
}
