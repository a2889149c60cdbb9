package guard

import (
	"context"
	"testing"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/session"
)

var staff = accesscontrol.Roles(accesscontrol.RoleAdmin, accesscontrol.RoleOwner)

func login(t *testing.T, store *session.MemoryStore, role accesscontrol.Role) {
	t.Helper()
	user := accesscontrol.Principal{ID: 1, Name: "U", Email: "u@example.com", Role: role}
	if err := store.Save(context.Background(), "tok", user); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestProtect(t *testing.T) {
	ctx := context.Background()

	t.Run("owner renders staff page", func(t *testing.T) {
		store := session.NewMemoryStore()
		login(t, store, accesscontrol.RoleOwner)
		d, err := Protect(ctx, store, "/admin/orders", staff)
		if err != nil || d.Outcome != Render {
			t.Fatalf("got %+v, %v", d, err)
		}
	})

	t.Run("customer is forbidden", func(t *testing.T) {
		store := session.NewMemoryStore()
		login(t, store, accesscontrol.RoleCustomer)
		d, err := Protect(ctx, store, "/admin/orders", staff)
		if err != nil || d.Outcome != RedirectForbidden || d.Target != ForbiddenPath {
			t.Fatalf("got %+v, %v", d, err)
		}
		if p, _ := store.ConsumeReturnPath(ctx); p != "" {
			t.Fatalf("forbidden visit saved return path %q", p)
		}
	})

	t.Run("anonymous goes to login with path saved", func(t *testing.T) {
		store := session.NewMemoryStore()
		d, err := Protect(ctx, store, "/admin/orders", staff)
		if err != nil || d.Outcome != RedirectLogin || d.Target != LoginPath {
			t.Fatalf("got %+v, %v", d, err)
		}
		if p, _ := store.ConsumeReturnPath(ctx); p != "/admin/orders" {
			t.Fatalf("return path = %q", p)
		}
	})

	t.Run("token without readable user is anonymous", func(t *testing.T) {
		store := session.NewMemoryStore()
		store.SetItem("token", "tok")
		store.SetItem("user", "{corrupt")
		d, _ := Protect(ctx, store, "/account", accesscontrol.AnyRole)
		if d.Outcome != RedirectLogin {
			t.Fatalf("got %+v", d)
		}
	})

	t.Run("empty requirement denies everyone", func(t *testing.T) {
		store := session.NewMemoryStore()
		login(t, store, accesscontrol.RoleOwner)
		d, _ := Protect(ctx, store, "/secret", accesscontrol.Roles())
		if d.Outcome != RedirectForbidden {
			t.Fatalf("got %+v", d)
		}
	})

	t.Run("AnyRole admits every role", func(t *testing.T) {
		for _, role := range accesscontrol.AllRoles {
			store := session.NewMemoryStore()
			login(t, store, role)
			d, _ := Protect(ctx, store, "/account", accesscontrol.AnyRole)
			if d.Outcome != Render {
				t.Fatalf("%s: got %+v", role, d)
			}
		}
	})

	t.Run("unsafe paths are not remembered", func(t *testing.T) {
		for _, p := range []string{"//evil.example.com", "https://evil.example.com", "/login", "/a\\b"} {
			store := session.NewMemoryStore()
			_, _ = Protect(ctx, store, p, staff)
			if got, _ := store.ConsumeReturnPath(ctx); got != "" {
				t.Errorf("saved unsafe return path %q", got)
			}
		}
	})
}

func TestAuthPage(t *testing.T) {
	ctx := context.Background()
	routes := DefaultRoutes()

	t.Run("anonymous sees the form", func(t *testing.T) {
		d, err := AuthPage(ctx, session.NewMemoryStore(), routes)
		if err != nil || d.Outcome != Render {
			t.Fatalf("got %+v, %v", d, err)
		}
	})

	t.Run("signed-in admin goes to the admin dashboard", func(t *testing.T) {
		store := session.NewMemoryStore()
		login(t, store, accesscontrol.RoleAdmin)
		d, err := AuthPage(ctx, store, routes)
		if err != nil || d.Outcome != RedirectAway || d.Target != "/admin/dashboard" {
			t.Fatalf("got %+v, %v", d, err)
		}
	})

	t.Run("return path wins when the role may see it", func(t *testing.T) {
		store := session.NewMemoryStore()
		_, _ = Protect(ctx, store, "/admin/orders?page=2", staff)
		login(t, store, accesscontrol.RoleOwner)
		d, _ := AuthPage(ctx, store, routes)
		if d.Target != "/admin/orders?page=2" {
			t.Fatalf("got %+v", d)
		}
	})

	t.Run("return path the role may not see falls back home", func(t *testing.T) {
		store := session.NewMemoryStore()
		_, _ = Protect(ctx, store, "/owner/dashboard", accesscontrol.Roles(accesscontrol.RoleOwner))
		login(t, store, accesscontrol.RoleCustomer)
		d, _ := AuthPage(ctx, store, routes)
		if d.Target != "/account" {
			t.Fatalf("got %+v", d)
		}
	})

	t.Run("recently logged out renders once", func(t *testing.T) {
		store := session.NewMemoryStore()
		login(t, store, accesscontrol.RoleAdmin)
		_ = store.SetFlag(ctx, session.FlagRecentlyLoggedOut)

		d, _ := AuthPage(ctx, store, routes)
		if d.Outcome != Render {
			t.Fatalf("first visit got %+v", d)
		}
		d, _ = AuthPage(ctx, store, routes)
		if d.Outcome != RedirectAway {
			t.Fatalf("flag was not one-shot: %+v", d)
		}
	})
}

func TestHomePath(t *testing.T) {
	want := map[accesscontrol.Role]string{
		accesscontrol.RoleCustomer: "/account",
		accesscontrol.RoleAdmin:    "/admin/dashboard",
		accesscontrol.RoleOwner:    "/owner/dashboard",
	}
	for role, path := range want {
		if got := HomePath(role); got != path {
			t.Errorf("HomePath(%s) = %q, want %q", role, got, path)
		}
	}
}

func TestRoutesRequirement(t *testing.T) {
	routes := DefaultRoutes().Add("/admin/settings", accesscontrol.Roles(accesscontrol.RoleOwner))
	admin := &accesscontrol.Principal{ID: 1, Role: accesscontrol.RoleAdmin}

	cases := []struct {
		path string
		want bool
	}{
		{"/admin", true},
		{"/admin/dashboard", true},
		{"/admin/settings", false},
		{"/admin/settings/tax", false},
		{"/administrator", true},
		{"/owner/dashboard", false},
		{"/products", true},
	}
	for _, tc := range cases {
		if got := routes.Allows(tc.path, admin); got != tc.want {
			t.Errorf("Allows(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
	if _, ok := routes.Requirement("/products"); ok {
		t.Fatal("public path has a requirement")
	}
}
