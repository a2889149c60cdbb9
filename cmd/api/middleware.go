package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/domain/users"
)

var (
	errMissingCredential = errors.New("authorization header is missing")
	errStaleCredential   = errors.New("credential no longer matches the account, sign in again")
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, pass, ok := r.BasicAuth()
			if !ok {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing or malformed"))
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(username), []byte(app.config.auth.basic.user)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(app.config.auth.basic.pass)) == 1
			if app.config.auth.basic.user == "" || !userOK || !passOK {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthTokenMiddleware resolves the bearer credential to a user and puts it in
// the request context. A token whose role no longer matches the stored role
// is treated as unauthenticated.
func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedErrorResponse(w, r, errMissingCredential)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
			return
		}

		claims, err := app.authenticator.ValidateToken(parts[1])
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := r.Context()

		user, err := app.store.Users.GetByID(ctx, claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, users.ErrNotFound):
				app.unauthorizedErrorResponse(w, r, fmt.Errorf("%w: user %d is gone", errStaleCredential, claims.UserID))
			default:
				app.internalServerError(w, r, err)
			}
			return
		}

		if user.Role != claims.Role {
			app.unauthorizedErrorResponse(w, r,
				fmt.Errorf("%w: token role %s, account role %s", errStaleCredential, claims.Role, user.Role))
			return
		}

		ctx = context.WithValue(ctx, userCtx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles must sit behind AuthTokenMiddleware.
func (app *application) RequireRoles(req accesscontrol.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := getUserFromContext(r)
			if user == nil {
				app.unauthorizedErrorResponse(w, r, errMissingCredential)
				return
			}

			principal := user.Principal()
			if !accesscontrol.HasRole(&principal, req) {
				app.forbiddenResponse(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(clientIP(r)); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
