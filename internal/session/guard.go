package session

import (
	"context"
	"errors"
	"fmt"

	"aerokit/internal/domain/accesscontrol"

	"go.uber.org/zap"
)

var ErrInvalidLoginResponse = errors.New("session: login response is incomplete")

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string             `json:"token"`
	ID    int64              `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  accesscontrol.Role `json:"role"`
}

func (r LoginResponse) Principal() accesscontrol.Principal {
	return accesscontrol.Principal{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
}

// LoginAPI exchanges credentials for a LoginResponse.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
}

type Session struct {
	Token string
	User  accesscontrol.Principal
}

// Guard is the single owner of the persisted session.
type Guard struct {
	store  Store
	api    LoginAPI
	logger *zap.SugaredLogger
}

func NewGuard(store Store, api LoginAPI, logger *zap.SugaredLogger) *Guard {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Guard{store: store, api: api, logger: logger}
}

func (g *Guard) Store() Store {
	return g.store
}

// Login replaces any existing session with the one returned by the API. On
// failure the API error is returned unchanged and nothing is written.
func (g *Guard) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := g.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Token == "" || resp.ID <= 0 || !resp.Role.Valid() {
		return nil, ErrInvalidLoginResponse
	}

	user := resp.Principal()
	if err := g.store.Save(ctx, resp.Token, user); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	g.logger.Infow("session started", "user_id", user.ID, "role", user.Role)
	return &Session{Token: resp.Token, User: user}, nil
}

// Logout is a no-op when nobody is logged in.
func (g *Guard) Logout(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser returns nil when no readable user is stored.
func (g *Guard) CurrentUser(ctx context.Context) *accesscontrol.Principal {
	snap, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warnw("could not load session", "error", err)
		return nil
	}
	return snap.User
}

// IsAuthenticated only checks that a credential is present. The server
// verifies it on every request.
func (g *Guard) IsAuthenticated(ctx context.Context) bool {
	token, err := g.store.Token(ctx)
	if err != nil {
		g.logger.Warnw("could not read session token", "error", err)
		return false
	}
	return token != ""
}

func (g *Guard) HasRole(user *accesscontrol.Principal, req accesscontrol.Requirement) bool {
	return accesscontrol.HasRole(user, req)
}
