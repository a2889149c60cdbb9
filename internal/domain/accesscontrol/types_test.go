package accesscontrol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "CUSTOMER", want: RoleCustomer},
		{in: "admin", want: RoleAdmin},
		{in: " Owner ", want: RoleOwner},
		{in: "venue_owner", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRole) {
					t.Fatalf("expected ErrUnknownRole, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestPrincipalRejectsUnknownRoleOnDecode(t *testing.T) {
	var p Principal
	err := json.Unmarshal([]byte(`{"id":1,"name":"x","email":"x@example.com","role":"SUPERUSER"}`), &p)
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}

	if err := json.Unmarshal([]byte(`{"id":1,"role":"owner"}`), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Role != RoleOwner {
		t.Fatalf("role should be canonicalised, got %q", p.Role)
	}
}

func TestHasRole(t *testing.T) {
	staff := Roles(RoleAdmin, RoleOwner)

	tests := []struct {
		name string
		user *Principal
		req  Requirement
		want bool
	}{
		{name: "owner in staff", user: &Principal{ID: 1, Role: RoleOwner}, req: staff, want: true},
		{name: "admin in staff", user: &Principal{ID: 2, Role: RoleAdmin}, req: staff, want: true},
		{name: "customer not in staff", user: &Principal{ID: 3, Role: RoleCustomer}, req: staff, want: false},
		{name: "nil user", user: nil, req: staff, want: false},
		{name: "nil user any role", user: nil, req: AnyRole, want: false},
		{name: "customer any role", user: &Principal{ID: 3, Role: RoleCustomer}, req: AnyRole, want: true},
		{name: "zero requirement denies", user: &Principal{ID: 1, Role: RoleOwner}, req: Requirement{}, want: false},
		{name: "empty allow-list denies", user: &Principal{ID: 1, Role: RoleOwner}, req: Roles(), want: false},
		{name: "invalid role never passes", user: &Principal{ID: 4, Role: Role("ROOT")}, req: AnyRole, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRole(tt.user, tt.req); got != tt.want {
				t.Fatalf("HasRole(%v, %s) = %v, want %v", tt.user, tt.req, got, tt.want)
			}
		})
	}
}

func TestRolesCopiesInput(t *testing.T) {
	in := []Role{RoleAdmin}
	req := Roles(in...)
	in[0] = RoleCustomer

	if !req.Allows(RoleAdmin) || req.Allows(RoleCustomer) {
		t.Fatalf("requirement must not alias caller slice: %s", req)
	}
}
