package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/session"
)

type recordingNavigator struct {
	mu        sync.Mutex
	path      string
	redirects []string
}

func (n *recordingNavigator) CurrentPath(context.Context) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *recordingNavigator) Redirect(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.path = path
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.redirects)
}

var owner = accesscontrol.Principal{ID: 1, Name: "Olu", Email: "olu@example.com", Role: accesscontrol.RoleOwner}

func newTestClient(t *testing.T, h http.Handler) (*Client, *session.MemoryStore, *recordingNavigator) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	nav := &recordingNavigator{path: "/owner/dashboard"}
	c, err := NewClient(Config{BaseURL: srv.URL, Store: store, Navigator: nav})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, store, nav
}

func TestAttachesBearerOnlyWithToken(t *testing.T) {
	var got []string
	var mu sync.Mutex
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Header.Get("Authorization"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	ctx := context.Background()

	if err := c.Do(ctx, http.MethodGet, "/v1/products", nil, nil); err != nil {
		t.Fatalf("anonymous request: %v", err)
	}
	if err := store.Save(ctx, "tok-1", owner); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.Do(ctx, http.MethodGet, "/v1/orders", nil, nil); err != nil {
		t.Fatalf("authenticated request: %v", err)
	}

	if got[0] != "" {
		t.Fatalf("anonymous request carried %q", got[0])
	}
	if got[1] != "Bearer tok-1" {
		t.Fatalf("authenticated request carried %q", got[1])
	}
}

func TestUnauthorizedPurgesAndRedirects(t *testing.T) {
	c, store, nav := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"token has expired","status":401}`))
	}))
	ctx := context.Background()
	_ = store.Save(ctx, "tok-1", owner)

	err := c.Do(ctx, http.MethodGet, "/v1/auth/me", nil, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "token has expired" {
		t.Fatalf("unexpected api error %#v", err)
	}

	snap, _ := store.Load(ctx)
	if snap.Token != "" || snap.User != nil {
		t.Fatalf("session not purged: %+v", snap)
	}
	if ok, _ := store.ConsumeFlag(ctx, session.FlagRecentlyLoggedOut); !ok {
		t.Fatal("recently-logged-out flag not set")
	}
	if nav.count() != 1 || nav.redirects[0] != "/login" {
		t.Fatalf("redirects = %v", nav.redirects)
	}
}

func TestUnauthorizedOnLoginPageDoesNotRedirect(t *testing.T) {
	c, store, nav := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	nav.path = "/login"
	ctx := context.Background()
	_ = store.Save(ctx, "tok-1", owner)

	_ = c.Do(ctx, http.MethodGet, "/v1/auth/me", nil, nil)

	if tok, _ := store.Token(ctx); tok != "" {
		t.Fatal("session not purged")
	}
	if nav.count() != 0 {
		t.Fatalf("redirected from the login page: %v", nav.redirects)
	}
}

func TestConcurrentUnauthorizedRedirectsOnce(t *testing.T) {
	c, store, nav := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	ctx := context.Background()
	_ = store.Save(ctx, "tok-1", owner)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Do(ctx, http.MethodGet, "/v1/orders", nil, nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}
	if nav.count() != 1 {
		t.Fatalf("redirected %d times, want 1", nav.count())
	}
	if ok, _ := store.ConsumeFlag(ctx, session.FlagRecentlyLoggedOut); !ok {
		t.Fatal("flag not set")
	}
}

func TestStaleUnauthorizedLeavesNewSession(t *testing.T) {
	ctx := context.Background()
	var store *session.MemoryStore
	c, store, nav := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A fresh login lands while the old request is in flight.
		_ = store.Save(ctx, "tok-2", owner)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	_ = store.Save(ctx, "tok-1", owner)

	_ = c.Do(ctx, http.MethodGet, "/v1/orders", nil, nil)

	if tok, _ := store.Token(ctx); tok != "tok-2" {
		t.Fatalf("new session was purged by a stale 401, token=%q", tok)
	}
	if nav.count() != 0 {
		t.Fatal("stale 401 redirected")
	}
}

func TestUnauthorizedWithoutTokenLeavesSessionAlone(t *testing.T) {
	c, store, nav := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid email or password","status":401}`))
	}))
	ctx := context.Background()

	_, err := c.Login(ctx, "ana@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "invalid email or password" {
		t.Fatalf("login error not propagated: %v", err)
	}
	if ok, _ := store.ConsumeFlag(ctx, session.FlagRecentlyLoggedOut); ok {
		t.Fatal("anonymous 401 set the logged-out flag")
	}
	if nav.count() != 0 {
		t.Fatal("anonymous 401 redirected")
	}
}

func TestServerErrorLeavesSessionAlone(t *testing.T) {
	c, store, nav := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	ctx := context.Background()
	_ = store.Save(ctx, "tok-1", owner)

	err := c.Do(ctx, http.MethodGet, "/v1/orders", nil, nil)
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if snap, _ := store.Load(ctx); !snap.Valid() {
		t.Fatal("server error touched the session")
	}
	if nav.count() != 0 {
		t.Fatal("server error redirected")
	}
}

func TestNetworkErrorLeavesSessionAlone(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	store := session.NewMemoryStore()
	nav := &recordingNavigator{path: "/account"}
	c, err := NewClient(Config{BaseURL: base, Store: store, Navigator: nav})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()
	_ = store.Save(ctx, "tok-1", owner)

	err = c.Do(ctx, http.MethodGet, "/v1/orders", nil, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if snap, _ := store.Load(ctx); !snap.Valid() {
		t.Fatal("network error touched the session")
	}
	if nav.count() != 0 {
		t.Fatal("network error redirected")
	}
}

func TestGuardLoginThroughClient(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"token":"tok-9","id":9,"name":"Ada","email":"ada@example.com","role":"ADMIN"}}`))
	}))
	ctx := context.Background()
	g := session.NewGuard(store, c, nil)

	sess, err := g.Login(ctx, "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "tok-9" || sess.User.Role != accesscontrol.RoleAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}
	if u := g.CurrentUser(ctx); u == nil || u.Name != "Ada" {
		t.Fatalf("current user = %+v", u)
	}
}

func TestFailedLoginLeavesExistingSession(t *testing.T) {
	var mu sync.Mutex
	var auth []string
	c, store, nav := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid credentials","status":401}`))
	}))
	ctx := context.Background()
	if err := store.Save(ctx, "tok-owner", owner); err != nil {
		t.Fatalf("save: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"login", func() error {
			_, err := session.NewGuard(store, c, nil).Login(ctx, owner.Email, "wrong-password")
			return err
		}},
		{"register", func() error {
			_, err := c.Register(ctx, "Olu", owner.Email, "wrong-password")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}

			snap, _ := store.Load(ctx)
			if snap.Token != "tok-owner" || snap.User == nil || snap.User.Role != accesscontrol.RoleOwner {
				t.Fatalf("session changed: token=%q user=%+v", snap.Token, snap.User)
			}
			if ok, _ := store.ConsumeFlag(ctx, session.FlagRecentlyLoggedOut); ok {
				t.Fatal("logged-out flag set by a credential exchange")
			}
			if nav.count() != 0 {
				t.Fatalf("redirects = %v", nav.redirects)
			}
		})
	}

	mu.Lock()
	defer mu.Unlock()
	for i, h := range auth {
		if h != "" {
			t.Fatalf("exchange %d carried %q", i, h)
		}
	}
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"token":"tok","id":3,"name":"X","email":"x@example.com","role":"ROOT"}}`))
	}))
	g := session.NewGuard(store, c, nil)

	if _, err := g.Login(context.Background(), "x@example.com", "pw"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
	if tok, _ := store.Token(context.Background()); tok != "" {
		t.Fatal("session persisted for unknown role")
	}
}

func TestNewClientValidates(t *testing.T) {
	if _, err := NewClient(Config{Store: session.NewMemoryStore()}); err == nil {
		t.Fatal("expected error without base URL")
	}
	if _, err := NewClient(Config{BaseURL: "ftp://example.com", Store: session.NewMemoryStore()}); err == nil {
		t.Fatal("expected error for non-http base URL")
	}
	if _, err := NewClient(Config{BaseURL: "http://example.com"}); err == nil {
		t.Fatal("expected error without store")
	}
}
