package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/domain/analytics"
	"aerokit/internal/domain/orders"
	"aerokit/internal/domain/products"
	"aerokit/internal/params"
	"aerokit/internal/session"
)

// Page is a paginated list answer.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Pagination params.Pagination `json:"pagination"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login implements session.LoginAPI. The exchange never carries the current
// session's credential.
func (c *Client) Login(ctx context.Context, email, password string) (*session.LoginResponse, error) {
	var out session.LoginResponse
	if err := c.Do(anonymous(ctx), http.MethodPost, "/v1/auth/login", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a customer account and returns its first credential.
func (c *Client) Register(ctx context.Context, name, email, password string) (*session.LoginResponse, error) {
	var out session.LoginResponse
	body := registerRequest{Name: name, Email: email, Password: password}
	if err := c.Do(anonymous(ctx), http.MethodPost, "/v1/auth/register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*accesscontrol.Principal, error) {
	var out accesscontrol.Principal
	if err := c.Do(ctx, http.MethodGet, "/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Products(ctx context.Context, category products.Category, page int) (*Page[products.Product], error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", string(category))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var out Page[products.Product]
	if err := c.Do(ctx, http.MethodGet, withQuery("/v1/products", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders lists the signed-in user's own orders.
func (c *Client) Orders(ctx context.Context, page int) (*Page[orders.Order], error) {
	return c.orderPage(ctx, "/v1/orders", "", page)
}

// AdminOrders lists every order, optionally filtered by status.
func (c *Client) AdminOrders(ctx context.Context, status orders.Status, page int) (*Page[orders.Order], error) {
	return c.orderPage(ctx, "/v1/admin/orders", status, page)
}

func (c *Client) orderPage(ctx context.Context, path string, status orders.Status, page int) (*Page[orders.Order], error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var out Page[orders.Order]
	if err := c.Do(ctx, http.MethodGet, withQuery(path, q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Analytics(ctx context.Context, window analytics.Window, from, to time.Time) (*analytics.Report, error) {
	q := url.Values{}
	q.Set("window", string(window))
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.UTC().Format(time.RFC3339))
	}
	var out analytics.Report
	if err := c.Do(ctx, http.MethodGet, withQuery("/v1/owner/analytics", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return fmt.Sprintf("%s?%s", path, q.Encode())
}
