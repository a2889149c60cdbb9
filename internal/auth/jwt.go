package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"aerokit/internal/domain/accesscontrol"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload: {id, role} plus the registered time claims.
type Claims struct {
	UserID int64              `json:"id"`
	Role   accesscontrol.Role `json:"role"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret    string
	ExpiresIn string
	Issuer    string
}

type JWTAuthenticator struct {
	secret   []byte
	lifetime time.Duration
	iss      string
	now      func() time.Time
}

// NewJWTAuthenticator fails fast when the secret or lifetime is unusable, so a
// misconfigured deployment never starts serving logins.
func NewJWTAuthenticator(cfg Config) (*JWTAuthenticator, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrMissingSecret
	}
	lifetime, err := ParseLifetime(cfg.ExpiresIn)
	if err != nil {
		return nil, err
	}
	return &JWTAuthenticator{
		secret:   []byte(cfg.Secret),
		lifetime: lifetime,
		iss:      cfg.Issuer,
		now:      time.Now,
	}, nil
}

// Lifetime is the configured token lifetime.
func (a *JWTAuthenticator) Lifetime() time.Duration {
	return a.lifetime
}

// IssueToken signs {id, role} with HS256. Only iat, nbf, exp and jti differ
// between two calls with the same input.
func (a *JWTAuthenticator) IssueToken(userID int64, role accesscontrol.Role) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrMissingSecret
	}
	if userID <= 0 {
		return "", fmt.Errorf("%w: user id %d", ErrInvalidClaims, userID)
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: role %q", ErrInvalidClaims, role)
	}

	now := a.clock()
	lifetime := a.lifetime
	if lifetime <= 0 {
		lifetime, _ = ParseLifetime(DefaultExpiresIn)
	}

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    a.iss,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken returns ErrTokenExpired for a well-signed token past its
// expiry and ErrTokenInvalid for everything else.
func (a *JWTAuthenticator) ValidateToken(token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, ErrMissingSecret
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenInvalid
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(a.clock),
	}
	if a.iss != "" {
		opts = append(opts, jwt.WithIssuer(a.iss))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (a *JWTAuthenticator) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}
