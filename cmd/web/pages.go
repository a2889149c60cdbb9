package main

import (
	"net/http"
	"strings"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/domain/analytics"
	"aerokit/internal/domain/orders"
	"aerokit/internal/domain/products"
	"aerokit/internal/guard"
)

func (app *application) homeHandler(w http.ResponseWriter, r *http.Request) {
	p := getPage(r)

	category := products.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		category = ""
	}

	catalogue, err := p.api.Products(r.Context(), category, 1)
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "home", view{Title: "Shop", Data: catalogue})
}

func (app *application) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "login", view{Title: "Sign in"})
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.render(w, r, http.StatusBadRequest, "login", view{Title: "Sign in", Error: "Could not read the form."})
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	form := map[string]string{"email": email}

	p := getPage(r)
	s, err := p.sessions.Login(r.Context(), email, password)
	if err != nil {
		if status, msg, ok := formMessage(err, "Enter a valid email and password."); ok {
			app.render(w, r, status, "login", view{Title: "Sign in", Error: msg, Form: form})
			return
		}
		app.apiFailure(w, r, err)
		return
	}

	app.afterSignIn(w, r, s.User.Role)
}

func (app *application) registerPageHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "register", view{Title: "Create account"})
}

func (app *application) registerHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.render(w, r, http.StatusBadRequest, "register", view{Title: "Create account", Error: "Could not read the form."})
		return
	}
	name := strings.TrimSpace(r.PostForm.Get("name"))
	email := strings.TrimSpace(r.PostForm.Get("email"))
	form := map[string]string{"name": name, "email": email}

	p := getPage(r)
	resp, err := p.api.Register(r.Context(), name, email, r.PostForm.Get("password"))
	if err != nil {
		if status, msg, ok := formMessage(err, "Enter your name, a valid email and a password of at least 8 characters."); ok {
			app.render(w, r, status, "register", view{Title: "Create account", Error: msg, Form: form})
			return
		}
		app.apiFailure(w, r, err)
		return
	}

	if err := p.store.Save(r.Context(), resp.Token, resp.Principal()); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.logger.Infow("account created", "user_id", resp.ID)

	app.afterSignIn(w, r, resp.Role)
}

// afterSignIn sends a freshly signed-in user where the auth page guard would.
func (app *application) afterSignIn(w http.ResponseWriter, r *http.Request, role accesscontrol.Role) {
	d, err := guard.AuthPage(r.Context(), getPage(r).store, app.routes)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	target := d.Target
	if d.Outcome != guard.RedirectAway {
		target = guard.HomePath(role)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	p := getPage(r)

	if err := p.api.Do(r.Context(), http.MethodPost, "/v1/auth/logout", nil, nil); err != nil {
		app.logger.Warnw("api logout failed", "error", err)
	}
	if err := p.sessions.Logout(r.Context()); err != nil {
		app.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}

func (app *application) forbiddenHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusForbidden, "forbidden", view{Title: "Not allowed"})
}

type accountData struct {
	Me     *accesscontrol.Principal
	Orders []orders.Order
}

func (app *application) accountHandler(w http.ResponseWriter, r *http.Request) {
	p := getPage(r)

	me, err := p.api.Me(r.Context())
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}
	list, err := p.api.Orders(r.Context(), 1)
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "account", view{
		Title: "My account",
		Data:  accountData{Me: me, Orders: list.Items},
	})
}

func (app *application) adminDashboardHandler(w http.ResponseWriter, r *http.Request) {
	p := getPage(r)

	var status orders.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		if s, err := orders.ParseStatus(raw); err == nil {
			status = s
		}
	}

	list, err := p.api.AdminOrders(r.Context(), status, 1)
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "admin", view{Title: "Orders", Data: list})
}

func (app *application) ownerDashboardHandler(w http.ResponseWriter, r *http.Request) {
	p := getPage(r)

	window := analytics.WindowWeek
	if w, err := analytics.ParseWindow(r.URL.Query().Get("window")); err == nil && r.URL.Query().Has("window") {
		window = w
	}

	report, err := p.api.Analytics(r.Context(), window, app.now().AddDate(0, 0, -7*12), app.now())
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "owner", view{Title: "Sales", Data: report})
}
