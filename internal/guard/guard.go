// Package guard decides what happens when a browser navigates to a page.
package guard

import (
	"context"
	"fmt"
	"strings"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/session"
)

const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	ForbiddenPath = "/forbidden"
)

type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectForbidden
	// RedirectAway sends an already signed-in user off a login or register page.
	RedirectAway
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectForbidden:
		return "redirect_forbidden"
	case RedirectAway:
		return "redirect_away"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is recomputed on every navigation and never stored.
type Decision struct {
	Outcome Outcome
	Target  string
}

// HomePath is where a role lands after signing in.
func HomePath(role accesscontrol.Role) string {
	switch role {
	case accesscontrol.RoleOwner:
		return "/owner/dashboard"
	case accesscontrol.RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/account"
	}
}

// Protect gates a page requiring req. Anonymous visitors are sent to the login
// page with path remembered; signed-in users without a matching role are sent
// to the forbidden page.
func Protect(ctx context.Context, store session.Store, path string, req accesscontrol.Requirement) (Decision, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("load session: %w", err)
	}

	if !snap.Valid() {
		if safeReturnPath(path) {
			if err := store.SetReturnPath(ctx, path); err != nil {
				return Decision{}, fmt.Errorf("save return path: %w", err)
			}
		}
		return Decision{Outcome: RedirectLogin, Target: LoginPath}, nil
	}

	if !accesscontrol.HasRole(snap.User, req) {
		return Decision{Outcome: RedirectForbidden, Target: ForbiddenPath}, nil
	}
	return Decision{Outcome: Render}, nil
}

// AuthPage handles the login and register pages. Signed-in users are sent to
// the page they were originally denied, when their role may see it, or to
// their home page. A visit straight after a forced logout always renders.
func AuthPage(ctx context.Context, store session.Store, routes *Routes) (Decision, error) {
	recentlyLoggedOut, err := store.ConsumeFlag(ctx, session.FlagRecentlyLoggedOut)
	if err != nil {
		return Decision{}, fmt.Errorf("consume logged-out flag: %w", err)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("load session: %w", err)
	}
	if !snap.Valid() || recentlyLoggedOut {
		return Decision{Outcome: Render}, nil
	}

	returnPath, err := store.ConsumeReturnPath(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("consume return path: %w", err)
	}
	if safeReturnPath(returnPath) && routes.Allows(returnPath, snap.User) {
		return Decision{Outcome: RedirectAway, Target: returnPath}, nil
	}
	return Decision{Outcome: RedirectAway, Target: HomePath(snap.User.Role)}, nil
}

// safeReturnPath accepts local absolute paths only, and never the auth pages
// themselves.
func safeReturnPath(p string) bool {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.ContainsAny(p, "\\\r\n") {
		return false
	}
	switch pathOnly(p) {
	case LoginPath, RegisterPath, ForbiddenPath:
		return false
	}
	return true
}

func pathOnly(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		return p[:i]
	}
	return p
}
