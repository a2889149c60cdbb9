package main

import (
	"errors"
	"net/http"

	"aerokit/internal/client"
	"aerokit/internal/guard"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	app.render(w, r, http.StatusInternalServerError, "error", view{
		Title: "Something went wrong",
		Error: "Something went wrong on our side. Please try again.",
	})
}

// apiFailure turns an API client error into a browser answer. A redirect
// requested by the client (a rejected session) always wins.
func (app *application) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	if target := getPage(r).nav.Target(); target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	var transportErr *client.TransportError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
	case errors.Is(err, client.ErrForbidden):
		http.Redirect(w, r, guard.ForbiddenPath, http.StatusSeeOther)
	case errors.As(err, &transportErr), errors.Is(err, client.ErrServer):
		app.logger.Warnw("api unavailable", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		app.render(w, r, http.StatusBadGateway, "error", view{
			Title: "Service unavailable",
			Error: "The shop is temporarily unavailable. Please try again shortly.",
		})
	default:
		app.serverError(w, r, err)
	}
}

// formMessage is the message shown next to a form the API refused.
func formMessage(err error, fallback string) (int, string, bool) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return 0, "", false
	}
	switch apiErr.Status {
	case http.StatusUnauthorized:
		return http.StatusUnauthorized, "Invalid email or password.", true
	case http.StatusConflict:
		return http.StatusConflict, "An account with that email already exists.", true
	case http.StatusBadRequest:
		return http.StatusBadRequest, fallback, true
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.", true
	}
	return 0, "", false
}
