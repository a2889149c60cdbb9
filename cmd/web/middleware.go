package main

import (
	"context"
	"net/http"
	"sync"

	"aerokit/internal/client"
	"aerokit/internal/guard"
	"aerokit/internal/session"

	"github.com/google/uuid"
)

const sessionCookie = "aerokit_sid"

type ctxKey string

const pageCtx ctxKey = "page"

// navigator records where the API client wants the browser to go. The
// handler turns it into a 303 once it is done.
type navigator struct {
	mu      sync.Mutex
	current string
	target  string
}

func (n *navigator) CurrentPath(context.Context) string {
	return n.current
}

func (n *navigator) Redirect(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.target == "" {
		n.target = path
	}
}

func (n *navigator) Target() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// page is everything a handler needs to talk to the API on behalf of one
// browser session.
type page struct {
	store    session.Store
	sessions *session.Guard
	api      *client.Client
	nav      *navigator
}

func getPage(r *http.Request) *page {
	p, _ := r.Context().Value(pageCtx).(*page)
	return p
}

// sessionMiddleware binds the request to the redis session named by the
// aerokit_sid cookie, minting a new id when the cookie is absent or garbled.
func (app *application) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sid = id.String()
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(app.config.sessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   app.config.secureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		store, err := session.NewRedisStore(app.redis, sid, app.config.sessionTTL)
		if err != nil {
			app.serverError(w, r, err)
			return
		}

		nav := &navigator{current: r.URL.Path}
		api := app.api.WithSession(store, nav)
		p := &page{
			store:    store,
			sessions: session.NewGuard(store, api, app.logger),
			api:      api,
			nav:      nav,
		}

		ctx := context.WithValue(r.Context(), pageCtx, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// protectMiddleware applies the route table to the requested page.
func (app *application) protectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := app.routes.Requirement(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		d, err := guard.Protect(r.Context(), getPage(r).store, r.URL.RequestURI(), req)
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		if d.Outcome != guard.Render {
			http.Redirect(w, r, d.Target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authPageMiddleware keeps signed-in users off the login and register pages.
func (app *application) authPageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := guard.AuthPage(r.Context(), getPage(r).store, app.routes)
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		if d.Outcome == guard.RedirectAway {
			http.Redirect(w, r, d.Target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
