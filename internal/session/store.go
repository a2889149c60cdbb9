// Package session holds the client-side session: the credential, the user it
// belongs to and a couple of one-shot navigation hints.
package session

import (
	"context"
	"encoding/json"
	"errors"

	"aerokit/internal/domain/accesscontrol"
)

var ErrNoSession = errors.New("session: not logged in")

// FlagRecentlyLoggedOut is raised when the session is purged after a 401 and
// consumed by the next visit to a login or register page.
const FlagRecentlyLoggedOut = "recentlyLoggedOut"

const (
	keyToken      = "token"
	keyUser       = "user"
	keyReturnPath = "returnPath"
	flagPrefix    = "flag:"
)

// Snapshot is a point-in-time read of the persisted pair.
type Snapshot struct {
	Token string
	User  *accesscontrol.Principal
}

// Valid reports whether both halves of the session are present and readable.
func (s Snapshot) Valid() bool {
	return s.Token != "" && s.User != nil
}

// Store owns the persisted session. Token and user are always written and
// removed together; flags and the return path are session-scoped.
type Store interface {
	Token(ctx context.Context) (string, error)
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, token string, user accesscontrol.Principal) error
	// Clear is idempotent.
	Clear(ctx context.Context) error
	// ClearIfToken purges the session only while it still holds token and
	// reports whether it did.
	ClearIfToken(ctx context.Context, token string) (bool, error)

	SetFlag(ctx context.Context, name string) error
	ConsumeFlag(ctx context.Context, name string) (bool, error)
	SetReturnPath(ctx context.Context, path string) error
	ConsumeReturnPath(ctx context.Context) (string, error)
}

func encodeUser(user accesscontrol.Principal) (string, error) {
	b, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeUser treats anything unreadable as no user at all, including a
// well-formed object carrying an unknown role.
func decodeUser(raw string) *accesscontrol.Principal {
	if raw == "" {
		return nil
	}
	var u accesscontrol.Principal
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	if u.ID <= 0 || !u.Role.Valid() {
		return nil
	}
	return &u
}
