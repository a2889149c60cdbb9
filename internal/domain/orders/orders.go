package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aerokit/internal/db"
	"aerokit/internal/params"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	q       db.Querier
	numbers *NumberGenerator
}

func NewRepository(q db.Querier, numbers *NumberGenerator) *Repository {
	if numbers == nil {
		panic("orders: NumberGenerator is nil")
	}
	return &Repository{q: q, numbers: numbers}
}

const orderColumns = `id, user_id, order_number, status, total_cents, created_at`

func scanOrder(row pgx.Row, o *Order, extra ...any) error {
	var status string
	dest := append([]any{&o.ID, &o.UserID, &o.OrderNumber, &status, &o.TotalCents, &o.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	o.Status = Status(status)
	return nil
}

// Create inserts the order row and its items. Call it inside a transaction so
// a failed item insert does not leave an empty order behind.
func (r *Repository) Create(ctx context.Context, o *Order) error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}

	number, err := r.numbers.Generate(o.UserID)
	if err != nil {
		return err
	}

	o.OrderNumber = number
	o.Status = StatusPending
	o.TotalCents = o.Total()

	err = r.q.QueryRow(ctx, `
INSERT INTO orders (user_id, order_number, status, total_cents)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`,
		o.UserID, o.OrderNumber, string(o.Status), o.TotalCents,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := r.q.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, color, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
			it.OrderID, it.ProductID, it.ProductName, it.Color, it.Quantity, it.UnitPriceCents,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	o.Items = items
	return &o, nil
}

func (r *Repository) loadItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.q.Query(ctx, `
SELECT id, order_id, product_id, product_name, color, quantity, unit_price_cents
FROM order_items
WHERE order_id = $1
ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Color,
			&it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, p params.Pagination) ([]Order, int, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+orderColumns+`,
       COUNT(*) OVER() AS total_count
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`,
		userID, p.Limit, p.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return collectPage(rows)
}

// ListAll is the admin listing with an optional status filter.
func (r *Repository) ListAll(ctx context.Context, status Status, p params.Pagination) ([]Order, int, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+orderColumns+`,
       COUNT(*) OVER() AS total_count
FROM orders
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`,
		string(status), p.Limit, p.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("admin list orders: %w", err)
	}
	return collectPage(rows)
}

func collectPage(rows pgx.Rows) ([]Order, int, error) {
	defer rows.Close()

	var (
		out   []Order
		total int
	)
	for rows.Next() {
		var (
			o Order
			t int
		)
		if err := scanOrder(rows, &o, &t); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		if total == 0 {
			total = t
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus moves an order along its lifecycle. The current status is
// locked while the transition is checked.
func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, status Status) (*Order, error) {
	var current string
	err := r.q.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order status: %w", err)
	}
	if !CanTransition(Status(current), status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	var o Order
	err = scanOrder(r.q.QueryRow(ctx, `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING `+orderColumns, orderID, string(status)), &o)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &o, nil
}

// ListBetween returns every order created in [from, to), oldest first.
func (r *Repository) ListBetween(ctx context.Context, from, to time.Time) ([]Order, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders between: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
