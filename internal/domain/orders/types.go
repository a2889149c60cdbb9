package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"aerokit/internal/params"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrEmptyOrder        = errors.New("order has no items")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// CanTransition reports whether an order in status from may move to to.
// Delivered and cancelled are terminal.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	OrderNumber string      `json:"order_number"`
	Status      Status      `json:"status"`
	TotalCents  int64       `json:"total_cents"`
	Items       []OrderItem `json:"items,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type OrderItem struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Color          string `json:"color,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Total sums quantity times unit price over the items.
func (o *Order) Total() int64 {
	var total int64
	for _, it := range o.Items {
		total += int64(it.Quantity) * it.UnitPriceCents
	}
	return total
}

type Store interface {
	// Create persists o with its items, assigning ID, OrderNumber and CreatedAt.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)

	// USER-facing
	ListByUser(ctx context.Context, userID int64, p params.Pagination) ([]Order, int, error)

	// ADMIN-facing
	ListAll(ctx context.Context, status Status, p params.Pagination) ([]Order, int, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) (*Order, error)

	// OWNER analytics
	ListBetween(ctx context.Context, from, to time.Time) ([]Order, error)
}
