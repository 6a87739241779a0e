package model

import (
	"errors"
	"time"
)

// ProviderCredentials tags accounts that log in with email + password.
// Any other provider value names an external OAuth provider.
const ProviderCredentials = "credentials"

// User represents an account record as stored in the `users` table.
//
// Fields:
//
//	ID              – opaque UUID string.
//	Name            – display name.
//	Email           – unique, stored lower-cased.
//	PasswordHash    – bcrypt hash; set only for credential accounts.
//	Role            – tenant, landlord or admin; never self-promoted.
//	Provider        – "credentials" or the OAuth provider name.
//	ProviderSubject – the provider's stable subject id (OAuth only).
//	IsActive        – false once an admin deactivates the account.
//	EmailVerified   – true for provider-asserted emails.
//	CreatedAt       – creation timestamp.
//	LastLoginAt     – last successful login, nil if never.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    *string    `json:"-"`
	Role            Role       `json:"role"`
	Provider        string     `json:"provider"`
	ProviderSubject *string    `json:"-"`
	IsActive        bool       `json:"is_active"`
	EmailVerified   bool       `json:"email_verified"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

var (
	errHashWithoutCredentials = errors.New("password hash is only allowed for credential accounts")
	errCredentialsWithoutHash = errors.New("credential accounts require a password hash")
	errMissingSubject         = errors.New("external provider accounts require a subject id")
)

// Validate checks the provider/credential invariant: a password hash is
// present if and only if Provider is "credentials".
func (u User) Validate() error {
	hasHash := u.PasswordHash != nil && *u.PasswordHash != ""
	if u.Provider == ProviderCredentials {
		if !hasHash {
			return errCredentialsWithoutHash
		}
	} else {
		if hasHash {
			return errHashWithoutCredentials
		}
		if u.ProviderSubject == nil || *u.ProviderSubject == "" {
			return errMissingSubject
		}
	}
	if !u.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
