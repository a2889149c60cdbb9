package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Store interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListCustomers(ctx context.Context, p params.Pagination) ([]User, int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, user *User) error {
	if !user.Role.Valid() {
		user.Role = accesscontrol.RoleCustomer
	}

	query := `
	  INSERT INTO users (name, email, password, role)
	  VALUES ($1, $2, $3, $4)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(
		ctx, query, user.Name, strings.ToLower(user.Email), user.Password.hash, string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		u    User
		role string
	)
	err := r.db.QueryRow(ctx, `
	  SELECT id, name, email, password, role, created_at, updated_at
	  FROM users `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Password.hash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	u.Role, err = accesscontrol.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	return &u, nil
}

func (r *Repository) ListCustomers(ctx context.Context, p params.Pagination) ([]User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`,
		string(accesscontrol.RoleCustomer)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	rows, err := r.db.Query(ctx, `
	  SELECT id, name, email, role, created_at, updated_at
	  FROM users
	  WHERE role = $1
	  ORDER BY created_at DESC
	  LIMIT $2 OFFSET $3
	`, string(accesscontrol.RoleCustomer), p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0, p.Limit)
	for rows.Next() {
		var (
			u    User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		u.Role = accesscontrol.Role(role)
		out = append(out, u)
	}
	return out, total, rows.Err()
}
