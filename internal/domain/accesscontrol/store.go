package accesscontrol

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type Store interface {
	GetRole(ctx context.Context, userID int64) (Role, error)
	SetRole(ctx context.Context, userID int64, role Role) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetRole(ctx context.Context, userID int64) (Role, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return ParseRole(raw)
}

func (r *Repository) SetRole(ctx context.Context, userID int64, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	result, err := r.db.Exec(ctx, `
        UPDATE users SET role = $1, updated_at = NOW()
        WHERE id = $2
    `, string(role), userID)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
