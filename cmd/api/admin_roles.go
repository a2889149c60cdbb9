package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"aerokit/internal/domain/accesscontrol"
)

type SetRolePayload struct {
	Role string `json:"role" validate:"required,role"`
}

// setUserRoleHandler godoc
//
//	@Summary		Change a user's role
//	@Description	The user's existing tokens stop working until they sign in again.
//	@Tags			owner
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int				true	"User ID"
//	@Param			payload	body		SetRolePayload	true	"CUSTOMER, ADMIN or OWNER"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/owner/users/{userID}/role [put]
func (app *application) setUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var in SetRolePayload
	if err := readJSON(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	role, _ := accesscontrol.ParseRole(in.Role)

	current := getUserFromContext(r)
	if current.ID == userID {
		app.badRequestResponse(w, r, fmt.Errorf("owners cannot change their own role"))
		return
	}

	if err := app.store.AccessControl.SetRole(ctx, userID, role); err != nil {
		switch {
		case errors.Is(err, accesscontrol.ErrUserNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("role changed", "user_id", userID, "role", role, "by", current.ID)
	app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "role updated",
		"role":    role.String(),
	})
}
