package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/utils"
)

// CredentialUsers is the user storage the password adapter needs.
type CredentialUsers interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// CredentialAdapter turns an email and password into an identity.
type CredentialAdapter struct {
	users CredentialUsers
	now   func() time.Time
}

func NewCredentialAdapter(users CredentialUsers) *CredentialAdapter {
	return &CredentialAdapter{users: users, now: time.Now}
}

var errBadCredentials = apperrors.Unauthenticated("invalid credentials")

// Login checks the password against the stored bcrypt hash. Unknown emails,
// OAuth-only accounts and wrong passwords fail identically.
func (a *CredentialAdapter) Login(ctx context.Context, email, password string) (model.Identity, model.User, error) {
	u, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return model.Identity{}, model.User{}, errBadCredentials
	}
	if err != nil {
		return model.Identity{}, model.User{}, fmt.Errorf("load user: %w", err)
	}
	if u.Provider != model.ProviderCredentials || u.PasswordHash == nil {
		return model.Identity{}, model.User{}, errBadCredentials
	}
	if !utils.VerifyPassword(*u.PasswordHash, password) {
		return model.Identity{}, model.User{}, errBadCredentials
	}
	if !u.IsActive {
		return model.Identity{}, model.User{}, apperrors.Forbidden("account deactivated")
	}

	at := a.now().UTC()
	if err := a.users.TouchLastLogin(ctx, u.ID, at); err != nil {
		return model.Identity{}, model.User{}, fmt.Errorf("touch last login: %w", err)
	}
	u.LastLoginAt = &at
	return model.IdentityOf(u), u, nil
}
