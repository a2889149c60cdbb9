package products

import (
	"context"
	"errors"
	"fmt"

	"aerokit/internal/db"
	"aerokit/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Store is the data access abstraction for the catalogue.
type Store interface {
	List(ctx context.Context, f Filter, p params.Pagination) ([]Product, int, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

const productColumns = `id, name, slug, description, category, price_cents, colors, is_active, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	var category string
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &category, &p.PriceCents,
		&p.Colors, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	p.Category = Category(category)
	if p.Colors == nil {
		p.Colors = []string{}
	}
	return nil
}

// List returns a page of products and the total number matching f.
func (r *Repository) List(ctx context.Context, f Filter, p params.Pagination) ([]Product, int, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+productColumns+`,
       COUNT(*) OVER() AS total_count
FROM products
WHERE ($1 = '' OR category = $1)
  AND ($2 OR is_active)
ORDER BY id DESC
LIMIT $3 OFFSET $4`,
		string(f.Category), f.IncludeInactive, p.Limit, p.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		out   = make([]Product, 0, p.Limit)
		total int
	)
	for rows.Next() {
		var (
			prod     Product
			category string
			t        int
		)
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Slug, &prod.Description, &category, &prod.PriceCents,
			&prod.Colors, &prod.IsActive, &prod.CreatedAt, &prod.UpdatedAt, &t); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		prod.Category = Category(category)
		if prod.Colors == nil {
			prod.Colors = []string{}
		}
		if total == 0 {
			total = t
		}
		out = append(out, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return out, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, p *Product) error {
	if err := p.Normalize(); err != nil {
		return err
	}

	err := scanProduct(r.q.QueryRow(ctx, `
INSERT INTO products (name, slug, description, category, price_cents, colors, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+productColumns,
		p.Name, p.Slug, p.Description, string(p.Category), p.PriceCents, p.Colors, p.IsActive,
	), p)
	if err != nil {
		return mapWriteError("create product", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, p *Product) error {
	if p.ID == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if err := p.Normalize(); err != nil {
		return err
	}

	err := scanProduct(r.q.QueryRow(ctx, `
UPDATE products
SET name=$1, slug=$2, description=$3, category=$4, price_cents=$5, colors=$6, is_active=$7, updated_at=now()
WHERE id=$8
RETURNING `+productColumns,
		p.Name, p.Slug, p.Description, string(p.Category), p.PriceCents, p.Colors, p.IsActive, p.ID,
	), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError("update product", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateSlug
	}
	return fmt.Errorf("%s: %w", op, err)
}
