package model

// Identity is the canonical caller claim set. Bearer tokens and
// provider-managed sessions both decode to it before the access gate
// resolves the live user.
type Identity struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IdentityOf extracts the claim set from a user record.
func IdentityOf(u User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}
