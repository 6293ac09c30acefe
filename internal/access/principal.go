// Package access provides the caller identity and the role and ownership checks.
package access

import (
	"context"
	"fmt"
	"strings"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
)

// Role is one tag of a user's role set.
type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRestaurantAdmin Role = "restaurant_admin"
)

// ParseRoles keeps known roles and drops the rest.
func ParseRoles(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	for _, r := range raw {
		switch role := Role(strings.ToLower(strings.TrimSpace(r))); role {
		case RoleCustomer, RoleRestaurantAdmin:
			out = append(out, role)
		}
	}
	return out
}

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Roles  []Role
}

// HasRole checks role membership.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequireRole rejects a principal lacking role.
func RequireRole(p Principal, role Role) error {
	if p.UserID <= 0 {
		return apperr.ErrUnauthenticated
	}
	if !p.HasRole(role) {
		return apperr.Forbidden("user %d lacks role %s", p.UserID, role)
	}
	return nil
}

// RequireOwner rejects a principal who is not the administrator of r.
func RequireOwner(p Principal, r *models.Restaurant) error {
	if err := RequireRole(p, RoleRestaurantAdmin); err != nil {
		return err
	}
	if r == nil || r.AdminID != p.UserID {
		return apperr.Forbidden("user %d does not administer restaurant %d", p.UserID, restaurantID(r))
	}
	return nil
}

// CanViewOrder reports whether p placed the order or administers its restaurant.
func CanViewOrder(p Principal, o *models.Order, r *models.Restaurant) bool {
	if o == nil || p.UserID <= 0 {
		return false
	}
	if p.HasRole(RoleCustomer) && o.CustomerID == p.UserID {
		return true
	}
	return r != nil && p.HasRole(RoleRestaurantAdmin) && r.ID == o.RestaurantID && r.AdminID == p.UserID
}

func restaurantID(r *models.Restaurant) int64 {
	if r == nil {
		return 0
	}
	return r.ID
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// String is used in log fields.
func (p Principal) String() string {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	return fmt.Sprintf("%d[%s]", p.UserID, strings.Join(roles, ","))
}
