package guard

import (
	"sort"
	"strings"

	"aerokit/internal/domain/accesscontrol"
)

// Routes maps path prefixes to the roles allowed below them. Paths that match
// no prefix are public.
type Routes struct {
	entries []route
}

type route struct {
	prefix string
	req    accesscontrol.Requirement
}

func NewRoutes() *Routes {
	return &Routes{}
}

// DefaultRoutes is the storefront's page table.
func DefaultRoutes() *Routes {
	return NewRoutes().
		Add("/account", accesscontrol.AnyRole).
		Add("/admin", accesscontrol.Roles(accesscontrol.RoleAdmin, accesscontrol.RoleOwner)).
		Add("/owner", accesscontrol.Roles(accesscontrol.RoleOwner))
}

// Add registers req for prefix and everything below it.
func (r *Routes) Add(prefix string, req accesscontrol.Requirement) *Routes {
	prefix = "/" + strings.Trim(prefix, "/")
	r.entries = append(r.entries, route{prefix: prefix, req: req})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return len(r.entries[i].prefix) > len(r.entries[j].prefix)
	})
	return r
}

// Requirement returns the most specific requirement covering path.
func (r *Routes) Requirement(path string) (accesscontrol.Requirement, bool) {
	path = pathOnly(path)
	for _, e := range r.entries {
		if path == e.prefix || strings.HasPrefix(path, e.prefix+"/") {
			return e.req, true
		}
	}
	return accesscontrol.Requirement{}, false
}

// Allows reports whether user may open path.
func (r *Routes) Allows(path string, user *accesscontrol.Principal) bool {
	req, ok := r.Requirement(path)
	if !ok {
		return true
	}
	return accesscontrol.HasRole(user, req)
}
