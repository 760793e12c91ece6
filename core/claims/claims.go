// Package claims carries the signed in caller through a request context.
package claims

import (
	"context"
	"errors"
)

// Roles as stored in user_roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ErrMissing is returned by Get for anonymous requests.
var ErrMissing = errors.New("no signed in user in context")

type Claims struct {
	UserID string
	Role   string
}

func (c Claims) Admin() bool { return c.Role == RoleAdmin }

// Allowed reports whether c may read a resource owned by ownerID.
func (c Claims) Allowed(ownerID string) bool {
	return c.Admin() || (c.UserID != "" && c.UserID == ownerID)
}

type ctxKey struct{}

func Set(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func Get(ctx context.Context) (Claims, error) {
	c, ok := ctx.Value(ctxKey{}).(Claims)
	if !ok || c.UserID == "" {
		return Claims{}, ErrMissing
	}
	return c, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	return err == nil && c.Admin()
}

// IsUserOrAdmin allows the owner of a resource and admins.
func IsUserOrAdmin(ctx context.Context, ownerID string) bool {
	c, err := Get(ctx)
	return err == nil && c.Allowed(ownerID)
}
