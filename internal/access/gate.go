// Package access resolves callers and enforces role and ownership rules.
//
// Checks always run in the same order: authentication, then role, then
// ownership. A caller with the wrong role is told so even when it also does
// not own the resource.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
)

// UserLoader reads the live user record.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// TokenVerifier decodes a bearer token into an identity.
type TokenVerifier interface {
	Verify(raw string) (model.Identity, error)
}

// Gate is the single authorization point for every operation.
type Gate struct {
	users  UserLoader
	tokens TokenVerifier
}

func NewGate(users UserLoader, tokens TokenVerifier) *Gate {
	return &Gate{users: users, tokens: tokens}
}

// Authenticate resolves a bearer token to the live user.
func (g *Gate) Authenticate(ctx context.Context, rawToken string) (model.User, error) {
	if rawToken == "" {
		return model.User{}, apperrors.Unauthenticated("missing bearer token")
	}
	id, err := g.tokens.Verify(rawToken)
	if err != nil {
		return model.User{}, err
	}
	return g.AuthenticateIdentity(ctx, id)
}

// AuthenticateIdentity loads the user behind an identity established by any
// session mechanism. The record is read fresh so deactivation and deletion
// take effect before the token expires.
func (g *Gate) AuthenticateIdentity(ctx context.Context, id model.Identity) (model.User, error) {
	if id.UserID == "" {
		return model.User{}, apperrors.Unauthenticated("identity has no subject")
	}
	u, err := g.users.GetByID(ctx, id.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return model.User{}, apperrors.NotFound("user")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return model.User{}, apperrors.Forbidden("account deactivated")
	}
	return u, nil
}

// Authorize requires user to hold role. The role comes from the live record,
// not the token, so a changed role applies immediately.
func (g *Gate) Authorize(user model.User, role model.Role) error {
	if user.Role != role {
		return apperrors.Forbidden(fmt.Sprintf("requires role %s", role))
	}
	return nil
}

// AuthorizeAny requires user to hold one of roles.
func (g *Gate) AuthorizeAny(user model.User, roles ...model.Role) error {
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return apperrors.Forbidden("role not permitted")
}

// AuthorizeOwnership requires user to be the landlord recorded on booking.
func (g *Gate) AuthorizeOwnership(user model.User, booking model.Booking) error {
	if booking.LandlordID != user.ID {
		return apperrors.Forbidden("not the owner of this booking's listing")
	}
	return nil
}

// AuthorizeListingOwner requires user to own listing.
func (g *Gate) AuthorizeListingOwner(user model.User, listing model.Listing) error {
	if listing.LandlordID != user.ID {
		return apperrors.Forbidden("not the owner of this listing")
	}
	return nil
}
