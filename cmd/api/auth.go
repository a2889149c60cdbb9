package main

import (
	"errors"
	"net/http"
	"strings"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/domain/users"
	"aerokit/internal/mailer"
)

type RegisterUserPayload struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResponse is what the storefront persists after signing in.
type LoginResponse struct {
	Token string             `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ID    int64              `json:"id" example:"42"`
	Name  string             `json:"name" example:"Mina Park"`
	Email string             `json:"email" example:"mina@example.com"`
	Role  accesscontrol.Role `json:"role" example:"CUSTOMER"`
}

// loginHandler godoc
//
//	@Summary		Sign in
//	@Description	Exchanges an email and password for a bearer token and the user's profile.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload	true	"User credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.invalidCredentialsResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.invalidCredentialsResponse(w, r, err)
		return
	}

	app.respondWithToken(w, r, http.StatusOK, user)
}

// registerUserHandler godoc
//
//	@Summary		Register a customer
//	@Description	Creates a CUSTOMER account and signs it in. A welcome e-mail is sent in the background.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload	true	"New account"
//	@Success		201		{object}	LoginResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/register [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &users.User{
		Name:  strings.TrimSpace(payload.Name),
		Email: strings.ToLower(strings.TrimSpace(payload.Email)),
		Role:  accesscontrol.RoleCustomer,
	}
	// hash the user password.
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.sendWelcomeEmail(user)
	app.respondWithToken(w, r, http.StatusCreated, user)
}

func (app *application) sendWelcomeEmail(user *users.User) {
	if app.mailer == nil {
		return
	}

	vars := struct {
		Name    string
		ShopURL string
	}{
		Name:    user.Name,
		ShopURL: app.config.frontendURL,
	}

	app.background(func() {
		status, err := app.mailer.Send(mailer.WelcomeTemplate, user.Name, user.Email, vars)
		if err != nil {
			app.logger.Errorw("error sending welcome email", "user_id", user.ID, "error", err)
			return
		}
		app.logger.Infow("Email sent", "status code", status, "user_id", user.ID)
	})
}

func (app *application) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *users.User) {
	token, err := app.authenticator.IssueToken(user.ID, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.metrics.TokensIssued.WithLabelValues(user.Role.String()).Inc()

	resp := LoginResponse{
		Token: token,
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	if err := app.jsonResponse(w, status, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// meHandler godoc
//
//	@Summary		Current user
//	@Description	Returns the identity behind the bearer token.
//	@Tags			authentication
//	@Produce		json
//	@Success		200	{object}	accesscontrol.Principal
//	@Failure		401	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/auth/me [get]
func (app *application) meHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user.Principal()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutHandler godoc
//
//	@Summary		Sign out
//	@Description	Tokens are not tracked server side; the client drops its session.
//	@Tags			authentication
//	@Success		204
//	@Router			/auth/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
