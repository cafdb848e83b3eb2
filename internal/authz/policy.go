// Package authz is the single ownership-policy used by every mutating
// route: compare the caller against the resource owner once, in one
// place, instead of re-implementing the check per handler.
package authz

import (
	"context"
	"errors"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// ErrForbidden is returned when the actor neither owns the resource nor
// holds the admin role.
var ErrForbidden = errors.New("actor is not the resource owner")

// Actor is the authenticated caller, extracted from validated claims.
type Actor struct {
	ID   int
	Role model.Role
}

// OwnerLookup resolves the owner account ID of a resource.
type OwnerLookup func(ctx context.Context) (int, error)

// Require allows the mutation when the actor owns the resource or is an
// admin.
func Require(a Actor, ownerID int) error {
	if a.Role == model.RoleAdmin || a.ID == ownerID {
		return nil
	}
	return ErrForbidden
}

// RequireFn is Require parameterized by an owner lookup, for callers
// that have not loaded the target entity yet. The lookup is skipped for
// admins.
func RequireFn(ctx context.Context, a Actor, lookup OwnerLookup) error {
	if a.Role == model.RoleAdmin {
		return nil
	}
	ownerID, err := lookup(ctx)
	if err != nil {
		return err
	}
	return Require(a, ownerID)
}
