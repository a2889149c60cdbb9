package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"aerokit/internal/auth"
)

// ErrorResponse is the envelope of every failed request.
//
//	@name	ErrorResponse
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"invalid email or password"`
	Status  int    `json:"status" example:"401"`
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

// unauthorizedErrorResponse keeps expired and otherwise invalid credentials
// apart so clients can tell them to the user.
func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	message := "unauthorized"
	reason := "invalid"
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		message, reason = "token has expired", "expired"
	case errors.Is(err, errMissingCredential):
		message, reason = err.Error(), "missing"
	case errors.Is(err, errStaleCredential):
		message, reason = err.Error(), "stale"
	}
	app.metrics.Rejections.WithLabelValues(reason).Inc()

	w.Header().Set("WWW-Authenticate", `Bearer realm="aerokit"`)
	writeJSONError(w, http.StatusUnauthorized, message)
}

func (app *application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("login failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	app.metrics.LoginFailures.Inc()

	writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)
	app.metrics.Rejections.WithLabelValues("forbidden").Inc()

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+strconv.Itoa(seconds)+"s")
}
