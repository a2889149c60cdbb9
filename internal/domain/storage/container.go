package storage

import (
	"context"
	"errors"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/domain/orders"
	"aerokit/internal/domain/products"
	"aerokit/internal/domain/users"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool          *pgxpool.Pool
	numbers       *orders.NumberGenerator
	Users         users.Store
	Products      products.Store
	Orders        orders.Store
	AccessControl accesscontrol.Store
}

func NewContainer(db *pgxpool.Pool, numbers *orders.NumberGenerator) *Container {
	return &Container{
		pool:          db,
		numbers:       numbers,
		Users:         users.NewRepository(db),
		Products:      products.NewRepository(db),
		Orders:        orders.NewRepository(db, numbers),
		AccessControl: accesscontrol.NewRepository(db),
	}
}

// Tx is a transaction-scoped set of repositories.
type Tx struct {
	Products products.Store
	Orders   orders.Store
}

// WithTx runs fn atomically. Returning an error rolls everything back.
func (c *Container) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	if c.pool == nil {
		return errors.New("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&Tx{
		Products: products.NewRepository(tx),
		Orders:   orders.NewRepository(tx, c.numbers),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
