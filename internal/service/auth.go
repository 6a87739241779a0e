package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/rental-booking/internal/access"
	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/session"
	"github.com/iliyamo/rental-booking/internal/utils"
)

// RegisterInput creates a credentials account. Role is tenant or landlord;
// admin accounts are never self-assigned.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=tenant landlord"`
}

// TokenPair is returned by every sign-in path.
type TokenPair struct {
	TokenType        string     `json:"token_type"`
	AccessToken      string     `json:"access_token"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
	User             model.User `json:"user"`
}

// SessionStore is implemented by session.Store.
type SessionStore interface {
	Create(ctx context.Context, id model.Identity) (string, error)
	Get(ctx context.Context, sid string) (model.Identity, error)
	Delete(ctx context.Context, sid string) error
	SaveState(ctx context.Context, state, provider string) error
	ConsumeState(ctx context.Context, state string) (string, error)
}

type AuthService struct {
	gate       *access.Gate
	users      UserStore
	refresh    TokenStore
	tokens     *utils.TokenService
	creds      *session.CredentialAdapter
	oauth      *session.OAuthAdapter
	sessions   SessionStore
	bcryptCost int
	refreshTTL time.Duration
}

// AuthConfig collects the AuthService dependencies. OAuth and Sessions may
// be nil, which disables provider sign-in.
type AuthConfig struct {
	Gate       *access.Gate
	Users      UserStore
	Refresh    TokenStore
	Tokens     *utils.TokenService
	OAuth      *session.OAuthAdapter
	Sessions   SessionStore
	BcryptCost int
	RefreshTTL time.Duration
}

func NewAuthService(cfg AuthConfig) *AuthService {
	return &AuthService{
		gate:       cfg.Gate,
		users:      cfg.Users,
		refresh:    cfg.Refresh,
		tokens:     cfg.Tokens,
		creds:      session.NewCredentialAdapter(cfg.Users),
		oauth:      cfg.OAuth,
		sessions:   cfg.Sessions,
		bcryptCost: cfg.BcryptCost,
		refreshTTL: cfg.RefreshTTL,
	}
}

// Register creates a credentials account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	role, err := model.ParseRole(in.Role)
	if err != nil || role == model.RoleAdmin {
		return TokenPair{}, apperrors.InvalidInput("role", "must be tenant or landlord")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return TokenPair{}, apperrors.InvalidInput("email", "must be a valid email address")
	}
	if len(in.Password) < utils.MinPasswordLength {
		return TokenPair{}, apperrors.InvalidInput("password", "must be at least 8 characters")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return TokenPair{}, apperrors.InvalidInput("name", "is required")
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return TokenPair{}, apperrors.Internal(err)
	}
	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		Provider:     model.ProviderCredentials,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return TokenPair{}, apperrors.Conflict("email already registered")
		}
		return TokenPair{}, err
	}
	return s.issuePair(ctx, u)
}

// Login authenticates with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	_, u, err := s.creds.Login(ctx, email, password)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(ctx, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair issued. The user is re-read so deactivated accounts cannot refresh.
func (s *AuthService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	if raw == "" {
		return TokenPair{}, apperrors.Unauthenticated("missing refresh token")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.refresh.ValidateRefresh(ctx, hash)
	if err != nil {
		return TokenPair{}, err
	}
	u, err := s.gate.AuthenticateIdentity(ctx, model.Identity{UserID: userID})
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.refresh.RevokeByHash(ctx, hash); err != nil {
		return TokenPair{}, apperrors.Internal(err)
	}
	return s.issuePair(ctx, u)
}

// Logout revokes one refresh token, or all of the user's when all is set.
func (s *AuthService) Logout(ctx context.Context, user model.User, raw string, all bool) error {
	if all {
		return s.refresh.RevokeAllForUser(ctx, user.ID)
	}
	if raw == "" {
		return apperrors.InvalidInput("refresh_token", "is required unless all is set")
	}
	return s.refresh.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
}

// OAuthEnabled reports whether provider sign-in is available.
func (s *AuthService) OAuthEnabled() bool {
	return s.oauth != nil && s.sessions != nil && len(s.oauth.Providers()) > 0
}

// OAuthStart returns the consent URL for provider and remembers its state
// nonce.
func (s *AuthService) OAuthStart(ctx context.Context, provider string) (string, error) {
	if !s.OAuthEnabled() {
		return "", apperrors.NotFound("oauth provider")
	}
	state, err := utils.RandomHex(16)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	url, err := s.oauth.AuthCodeURL(provider, state)
	if err != nil {
		return "", err
	}
	if err := s.sessions.SaveState(ctx, state, provider); err != nil {
		return "", apperrors.Internal(err)
	}
	return url, nil
}

// OAuthCallback completes provider sign-in and opens a provider-managed
// session. The returned session id is exchanged for a bearer token through
// SessionToken.
func (s *AuthService) OAuthCallback(ctx context.Context, provider, state, code string) (string, model.User, error) {
	if !s.OAuthEnabled() {
		return "", model.User{}, apperrors.NotFound("oauth provider")
	}
	issuedFor, err := s.sessions.ConsumeState(ctx, state)
	if err != nil {
		return "", model.User{}, err
	}
	if issuedFor != provider {
		return "", model.User{}, apperrors.Unauthenticated("oauth state does not match provider")
	}
	id, u, err := s.oauth.Exchange(ctx, provider, code)
	if err != nil {
		return "", model.User{}, err
	}
	sid, err := s.sessions.Create(ctx, id)
	if err != nil {
		return "", model.User{}, apperrors.Internal(err)
	}
	return sid, u, nil
}

// SessionToken is the identity sync step: a live provider-managed session
// is traded for a bearer token carrying the same identity.
func (s *AuthService) SessionToken(ctx context.Context, sid string) (TokenPair, error) {
	if s.sessions == nil {
		return TokenPair{}, apperrors.Unauthenticated("sessions unavailable")
	}
	id, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return TokenPair{}, err
	}
	u, err := s.gate.AuthenticateIdentity(ctx, id)
	if err != nil {
		return TokenPair{}, err
	}
	tok, err := s.tokens.Issue(u)
	if err != nil {
		return TokenPair{}, apperrors.Internal(err)
	}
	return TokenPair{TokenType: "Bearer", AccessToken: tok.Token, ExpiresAt: tok.Exp, User: u}, nil
}

// EndSession deletes a provider-managed session.
func (s *AuthService) EndSession(ctx context.Context, sid string) error {
	if s.sessions == nil || sid == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sid)
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	at, err := s.tokens.Issue(u)
	if err != nil {
		return TokenPair{}, apperrors.Internal(err)
	}
	rt, err := utils.NewRefreshToken(s.refreshTTL)
	if err != nil {
		return TokenPair{}, apperrors.Internal(err)
	}
	if err := s.refresh.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return TokenPair{}, apperrors.Internal(err)
	}
	return TokenPair{
		TokenType:        "Bearer",
		AccessToken:      at.Token,
		ExpiresAt:        at.Exp,
		RefreshToken:     rt.Raw,
		RefreshExpiresAt: &rt.Exp,
		User:             u,
	}, nil
}
