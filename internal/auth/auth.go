package auth

import (
	"errors"

	"aerokit/internal/domain/accesscontrol"
)

var (
	// ErrMissingSecret is a deployment error: nothing can be signed until it is fixed.
	ErrMissingSecret   = errors.New("auth: token signing secret is not configured")
	ErrInvalidLifetime = errors.New("auth: invalid token lifetime")
	ErrInvalidClaims   = errors.New("auth: invalid token claims")
	ErrTokenExpired    = errors.New("auth: token has expired")
	ErrTokenInvalid    = errors.New("auth: token is invalid")
)

type Authenticator interface {
	IssueToken(userID int64, role accesscontrol.Role) (string, error)
	ValidateToken(token string) (*Claims, error)
}
