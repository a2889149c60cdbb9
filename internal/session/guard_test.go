package session

import (
	"context"
	"errors"
	"testing"

	"aerokit/internal/domain/accesscontrol"
)

type fakeLoginAPI struct {
	resp *LoginResponse
	err  error
}

func (f *fakeLoginAPI) Login(context.Context, string, string) (*LoginResponse, error) {
	return f.resp, f.err
}

func TestGuardLoginLogout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	api := &fakeLoginAPI{resp: &LoginResponse{Token: "tok-owner", ID: 1, Name: "Olu", Email: "olu@example.com", Role: accesscontrol.RoleOwner}}
	g := NewGuard(store, api, nil)

	if g.IsAuthenticated(ctx) || g.CurrentUser(ctx) != nil {
		t.Fatal("fresh guard reports a session")
	}

	sess, err := g.Login(ctx, "olu@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "tok-owner" || sess.User.Role != accesscontrol.RoleOwner {
		t.Fatalf("unexpected session %+v", sess)
	}
	if !g.IsAuthenticated(ctx) {
		t.Fatal("not authenticated after login")
	}
	if u := g.CurrentUser(ctx); u == nil || u.ID != 1 || u.Email != "olu@example.com" {
		t.Fatalf("current user = %+v", u)
	}

	if err := g.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if g.IsAuthenticated(ctx) || g.CurrentUser(ctx) != nil {
		t.Fatal("session survived logout")
	}
	if err := g.Logout(ctx); err != nil {
		t.Fatalf("logout when logged out: %v", err)
	}
}

func TestGuardLoginReplacesPreviousSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	api := &fakeLoginAPI{resp: &LoginResponse{Token: "tok-a", ID: 1, Name: "A", Email: "a@example.com", Role: accesscontrol.RoleCustomer}}
	g := NewGuard(store, api, nil)

	if _, err := g.Login(ctx, "a@example.com", "pw"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	api.resp = &LoginResponse{Token: "tok-b", ID: 2, Name: "B", Email: "b@example.com", Role: accesscontrol.RoleAdmin}
	if _, err := g.Login(ctx, "b@example.com", "pw"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	snap, _ := store.Load(ctx)
	if snap.Token != "tok-b" || snap.User.ID != 2 {
		t.Fatalf("mixed session after relogin: %+v / %+v", snap.Token, snap.User)
	}
}

func TestGuardLoginFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	apiErr := errors.New("invalid credentials")

	cases := map[string]*fakeLoginAPI{
		"api error":        {err: apiErr},
		"missing token":    {resp: &LoginResponse{ID: 1, Role: accesscontrol.RoleCustomer}},
		"missing role":     {resp: &LoginResponse{Token: "t", ID: 1}},
		"missing identity": {resp: &LoginResponse{Token: "t", Role: accesscontrol.RoleCustomer}},
	}
	for name, api := range cases {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			g := NewGuard(store, api, nil)

			_, err := g.Login(ctx, "x@example.com", "pw")
			if err == nil {
				t.Fatal("expected login error")
			}
			if api.err != nil && err != apiErr {
				t.Fatalf("api error not propagated unchanged: %v", err)
			}
			if g.IsAuthenticated(ctx) || g.CurrentUser(ctx) != nil {
				t.Fatal("failed login left state behind")
			}
		})
	}
}

func TestGuardLoginFailureKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	current := accesscontrol.Principal{ID: 1, Name: "Olu", Email: "olu@example.com", Role: accesscontrol.RoleOwner}

	cases := map[string]*fakeLoginAPI{
		"api error":     {err: errors.New("invalid credentials")},
		"missing token": {resp: &LoginResponse{ID: 2, Role: accesscontrol.RoleCustomer}},
	}
	for name, api := range cases {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			if err := store.Save(ctx, "tok-owner", current); err != nil {
				t.Fatalf("save: %v", err)
			}
			g := NewGuard(store, api, nil)

			if _, err := g.Login(ctx, "someone@example.com", "wrong"); err == nil {
				t.Fatal("expected login error")
			}
			snap, _ := store.Load(ctx)
			if snap.Token != "tok-owner" || snap.User == nil || *snap.User != current {
				t.Fatalf("existing session changed: %q %+v", snap.Token, snap.User)
			}
			if ok, _ := store.ConsumeFlag(ctx, FlagRecentlyLoggedOut); ok {
				t.Fatal("failed login raised the logged-out flag")
			}
		})
	}
}

func TestGuardHasRole(t *testing.T) {
	g := NewGuard(NewMemoryStore(), &fakeLoginAPI{}, nil)
	staff := accesscontrol.Roles(accesscontrol.RoleAdmin, accesscontrol.RoleOwner)

	if g.HasRole(nil, staff) {
		t.Fatal("nil user has a role")
	}
	if !g.HasRole(&accesscontrol.Principal{ID: 1, Role: accesscontrol.RoleOwner}, staff) {
		t.Fatal("owner rejected")
	}
	if g.HasRole(&accesscontrol.Principal{ID: 1, Role: accesscontrol.RoleCustomer}, staff) {
		t.Fatal("customer admitted")
	}
}
