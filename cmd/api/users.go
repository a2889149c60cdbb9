package main

import (
	"net/http"

	"aerokit/internal/domain/users"
	"aerokit/internal/params"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *users.User {
	if user, ok := r.Context().Value(userCtx).(*users.User); ok {
		return user
	}
	return nil
}

// adminListCustomersHandler godoc
//
//	@Summary		List customers
//	@Tags			admin
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size (max 50)"
//	@Success		200		{object}	listResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/customers [get]
func (app *application) adminListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	customers, total, err := app.store.Users.ListCustomers(r.Context(), p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse{Items: customers, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}
