package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"aerokit/internal/domain/products"
	"aerokit/internal/params"

	"github.com/go-chi/chi/v5"
)

type ProductPayload struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Slug        string   `json:"slug" validate:"omitempty,max=140"`
	Description *string  `json:"description" validate:"omitempty,max=4000"`
	Category    string   `json:"category" validate:"required,oneof=inhaler accessory"`
	PriceCents  int64    `json:"price_cents" validate:"gte=0"`
	Colors      []string `json:"colors" validate:"omitempty,max=24,dive,hexcolor"`
	IsActive    *bool    `json:"is_active"`
}

func (p ProductPayload) toProduct() *products.Product {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return &products.Product{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    products.Category(p.Category),
		PriceCents:  p.PriceCents,
		Colors:      p.Colors,
		IsActive:    active,
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Active catalogue, newest first.
//	@Tags			products
//	@Produce		json
//	@Param			category	query		string	false	"inhaler or accessory"
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size (max 50)"
//	@Success		200			{object}	listResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	var f products.Filter
	if c := r.URL.Query().Get("category"); c != "" {
		f.Category = products.Category(c)
		if !f.Category.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("%w: %q", products.ErrInvalidCategory, c))
			return
		}
	}

	p := params.ParsePagination(r.URL.Query())
	list, total, err := app.store.Products.List(r.Context(), f, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse{Items: list, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductHandler godoc
//
//	@Summary		Get a product
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	products.Product
//	@Failure		404			{object}	ErrorResponse
//	@Router			/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		app.productError(w, r, err)
		return
	}
	if !product.IsActive {
		app.notFoundResponse(w, r, products.ErrNotFound)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ProductPayload	true	"Product"
//	@Success		201		{object}	products.Product
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload ProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product := payload.toProduct()
	if err := app.store.Products.Create(r.Context(), product); err != nil {
		app.productError(w, r, err)
		return
	}

	app.logger.Infow("product created", "product_id", product.ID, "by", getUserFromContext(r).ID)
	if err := app.jsonResponse(w, http.StatusCreated, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateProductHandler godoc
//
//	@Summary		Replace a product
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int				true	"Product ID"
//	@Param			payload		body		ProductPayload	true	"Product"
//	@Success		200			{object}	products.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/products/{productID} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product := payload.toProduct()
	product.ID = id
	if err := app.store.Products.Update(r.Context(), product); err != nil {
		app.productError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteProductHandler godoc
//
//	@Summary		Delete a product
//	@Tags			admin
//	@Param			productID	path	int	true	"Product ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Products.Delete(r.Context(), id); err != nil {
		app.productError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) productError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, products.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, products.ErrDuplicateSlug):
		app.conflictResponse(w, r, err)
	case errors.Is(err, products.ErrInvalidProduct), errors.Is(err, products.ErrInvalidCategory):
		app.badRequestResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
