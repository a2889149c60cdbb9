package main

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"aerokit/internal/domain/orders"
	"aerokit/internal/domain/products"
	"aerokit/internal/domain/storage"
	"aerokit/internal/params"
)

type OrderItemPayload struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=20"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
}

type CreateOrderPayload struct {
	Items []OrderItemPayload `json:"items" validate:"required,min=1,max=50,dive"`
}

type UpdateOrderStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

var errInvalidOrderItem = errors.New("invalid order item")

// createOrderHandler godoc
//
//	@Summary		Place an order
//	@Description	Prices are taken from the catalogue at the time of ordering.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateOrderPayload	true	"Order lines"
//	@Success		201		{object}	orders.Order
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/orders [post]
func (app *application) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateOrderPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	order := &orders.Order{UserID: user.ID}

	err := app.tx.WithTx(r.Context(), func(tx *storage.Tx) error {
		for _, line := range payload.Items {
			product, err := tx.Products.GetByID(r.Context(), line.ProductID)
			if err != nil {
				if errors.Is(err, products.ErrNotFound) {
					return fmt.Errorf("%w: product %d does not exist", errInvalidOrderItem, line.ProductID)
				}
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("%w: product %d is not for sale", errInvalidOrderItem, product.ID)
			}

			color := strings.ToUpper(line.Color)
			if color != "" && !slices.Contains(product.Colors, color) {
				return fmt.Errorf("%w: %s is not offered in %s", errInvalidOrderItem, product.Name, color)
			}

			order.Items = append(order.Items, orders.OrderItem{
				ProductID:      product.ID,
				ProductName:    product.Name,
				Color:          color,
				Quantity:       line.Quantity,
				UnitPriceCents: product.PriceCents,
			})
		}
		return tx.Orders.Create(r.Context(), order)
	})
	if err != nil {
		switch {
		case errors.Is(err, errInvalidOrderItem), errors.Is(err, orders.ErrEmptyOrder):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("order placed", "order_number", order.OrderNumber, "user_id", user.ID, "total_cents", order.TotalCents)
	if err := app.jsonResponse(w, http.StatusCreated, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listMyOrdersHandler godoc
//
//	@Summary		List my orders
//	@Tags			orders
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size (max 50)"
//	@Success		200		{object}	listResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/orders [get]
func (app *application) listMyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	list, total, err := app.store.Orders.ListByUser(r.Context(), user.ID, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse{Items: nonNil(list), Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// adminListOrdersHandler godoc
//
//	@Summary		List all orders
//	@Tags			admin
//	@Produce		json
//	@Param			status	query		string	false	"pending, processing, shipped, delivered or cancelled"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size (max 50)"
//	@Success		200		{object}	listResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/orders [get]
func (app *application) adminListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	var status orders.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := orders.ParseStatus(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		status = s
	}

	p := params.ParsePagination(r.URL.Query())
	list, total, err := app.store.Orders.ListAll(r.Context(), status, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse{Items: nonNil(list), Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateOrderStatusHandler godoc
//
//	@Summary		Move an order along its lifecycle
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		int							true	"Order ID"
//	@Param			payload	body		UpdateOrderStatusPayload	true	"New status"
//	@Success		200		{object}	orders.Order
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/orders/{orderID}/status [patch]
func (app *application) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "orderID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateOrderStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var updated *orders.Order
	err = app.tx.WithTx(r.Context(), func(tx *storage.Tx) error {
		var err error
		updated, err = tx.Orders.UpdateStatus(r.Context(), id, orders.Status(payload.Status))
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, orders.ErrInvalidTransition):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("order status changed", "order_id", id, "status", updated.Status, "by", getUserFromContext(r).ID)
	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
