package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"aerokit/internal/domain/accesscontrol"
)

//go:embed "templates"
var templateFS embed.FS

var pageNames = []string{"home", "login", "register", "account", "admin", "owner", "forbidden", "error"}

type pageSet map[string]*template.Template

var funcs = template.FuncMap{
	"money": func(cents int64) string {
		sign := ""
		if cents < 0 {
			sign, cents = "-", -cents
		}
		return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
	},
	"date": func(t time.Time) string {
		return t.Format("2 Jan 2006")
	},
	"isStaff": func(u *accesscontrol.Principal) bool {
		return accesscontrol.HasRole(u, accesscontrol.Roles(accesscontrol.RoleAdmin, accesscontrol.RoleOwner))
	},
	"isOwner": func(u *accesscontrol.Principal) bool {
		return accesscontrol.HasRole(u, accesscontrol.Roles(accesscontrol.RoleOwner))
	},
}

func parseTemplates() (pageSet, error) {
	set := pageSet{}
	for _, name := range pageNames {
		tmpl, err := template.New("layout.tmpl").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		set[name] = tmpl
	}
	return set, nil
}

type view struct {
	Title string
	User  *accesscontrol.Principal
	Error string
	Form  map[string]string
	Data  any
}

func (app *application) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	tmpl, ok := app.pages[name]
	if !ok {
		app.logger.Errorw("unknown page template", "page", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if v.User == nil {
		if p := getPage(r); p != nil {
			v.User = p.sessions.CurrentUser(r.Context())
		}
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, v); err != nil {
		app.logger.Errorw("render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
