package accesscontrol

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is the single role carried by every authenticated identity.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
	RoleOwner    Role = "OWNER"
)

// AllRoles lists the closed set of roles in ascending privilege.
var AllRoles = []Role{RoleCustomer, RoleAdmin, RoleOwner}

// ParseRole accepts any casing and returns the canonical role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return slices.Contains(AllRoles, r)
}

func (r Role) String() string {
	return string(r)
}

// UnmarshalText rejects unknown roles so they never get past a decoding boundary
// (JSON bodies, JWT claims, stored sessions).
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Requirement is the set of roles allowed through a gate.
//
// The zero value allows nobody. Callers that really mean "any signed-in user"
// must say so with AnyRole.
type Requirement struct {
	any   bool
	roles []Role
}

// AnyRole admits every authenticated identity regardless of role.
var AnyRole = Requirement{any: true}

// Roles builds an explicit allow-list.
func Roles(roles ...Role) Requirement {
	return Requirement{roles: slices.Clone(roles)}
}

func (q Requirement) Allows(role Role) bool {
	if !role.Valid() {
		return false
	}
	if q.any {
		return true
	}
	return slices.Contains(q.roles, role)
}

func (q Requirement) String() string {
	if q.any {
		return "any"
	}
	if len(q.roles) == 0 {
		return "none"
	}
	names := make([]string, len(q.roles))
	for i, r := range q.roles {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}

// Principal is the identity shape shared by the login response, the API
// request context and the client-side session.
type Principal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// HasRole is the one role predicate every gate goes through.
func HasRole(user *Principal, req Requirement) bool {
	return user != nil && req.Allows(user.Role)
}
