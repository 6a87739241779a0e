package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
)

// AccessToken is a signed JWT and its expiry.
type AccessToken struct {
	Token string    `json:"access_token"`
	Exp   time.Time `json:"expires_at"`
}

// RefreshToken is a long-lived opaque token. Only HashRefreshRaw(Raw) is
// persisted; Raw goes to the client once.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// claims is the wire form of model.Identity plus registered claims.
type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a service signing with secret. Tokens expire ttl
// after issuance.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// TTL returns the configured access token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token carrying the user's id, email and role. It has no side
// effects.
func (s *TokenService) Issue(u model.User) (AccessToken, error) {
	iat := s.now().UTC().Truncate(time.Second)
	exp := iat.Add(s.ttl)
	c := claims{
		Email: u.Email,
		Role:  u.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks the signature and expiry and decodes the identity. The token
// is valid only while now < exp. Expired tokens fail with apperrors.ErrExpired;
// anything else that does not decode fails with apperrors.ErrMalformed.
func (s *TokenService) Verify(raw string) (model.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, apperrors.Expired()
		}
		return model.Identity{}, apperrors.Malformed(err)
	}
	if c.Subject == "" {
		return model.Identity{}, apperrors.Malformed(errors.New("missing subject"))
	}
	role, err := model.ParseRole(c.Role)
	if err != nil {
		return model.Identity{}, apperrors.Malformed(err)
	}
	return model.Identity{UserID: c.Subject, Email: c.Email, Role: role}, nil
}

// NewRefreshToken returns a random 96-character hex token valid for ttl.
func NewRefreshToken(ttl time.Duration) (RefreshToken, error) {
	raw, err := RandomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: raw, Exp: time.Now().UTC().Add(ttl)}, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns n bytes from crypto/rand, hex encoded.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
