package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// Provider is one configured OAuth identity provider.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	// EmailsURL is consulted when the profile omits the email (GitHub).
	EmailsURL string
}

// GoogleProvider configures Google sign-in via OpenID Connect userinfo.
func GoogleProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	}
}

// GitHubProvider configures GitHub sign-in.
func GitHubProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name: "github",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		UserInfoURL: "https://api.github.com/user",
		EmailsURL:   "https://api.github.com/user/emails",
	}
}

// profile is the provider-asserted subset we keep.
type profile struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// OAuthUsers is the user storage the OAuth adapter needs.
type OAuthUsers interface {
	GetByProviderSubject(ctx context.Context, provider, subject string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u *model.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// OAuthAdapter turns an authorization code into an identity, provisioning
// a tenant account on first sign-in.
type OAuthAdapter struct {
	users     OAuthUsers
	providers map[string]*Provider
	now       func() time.Time
}

func NewOAuthAdapter(users OAuthUsers, providers ...*Provider) *OAuthAdapter {
	m := make(map[string]*Provider, len(providers))
	for _, p := range providers {
		m[p.Name] = p
	}
	return &OAuthAdapter{users: users, providers: m, now: time.Now}
}

// Providers lists the configured provider names.
func (a *OAuthAdapter) Providers() []string {
	names := make([]string, 0, len(a.providers))
	for n := range a.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a *OAuthAdapter) provider(name string) (*Provider, error) {
	p, ok := a.providers[name]
	if !ok {
		return nil, apperrors.NotFound("oauth provider")
	}
	return p, nil
}

// AuthCodeURL returns the provider consent URL carrying state.
func (a *OAuthAdapter) AuthCodeURL(provider, state string) (string, error) {
	p, err := a.provider(provider)
	if err != nil {
		return "", err
	}
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades code for a provider token, reads the profile and resolves
// the local account. An email already owned by a password account, or by
// another provider's account, is a Conflict: accounts are never merged
// implicitly.
func (a *OAuthAdapter) Exchange(ctx context.Context, provider, code string) (model.Identity, model.User, error) {
	p, err := a.provider(provider)
	if err != nil {
		return model.Identity{}, model.User{}, err
	}
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return model.Identity{}, model.User{}, apperrors.Unauthenticated("oauth code exchange failed")
	}
	prof, err := fetchProfile(ctx, p, p.Config.Client(ctx, tok))
	if err != nil {
		return model.Identity{}, model.User{}, fmt.Errorf("fetch %s profile: %w", p.Name, err)
	}
	if prof.Subject == "" || prof.Email == "" {
		return model.Identity{}, model.User{}, apperrors.Unauthenticated("provider returned no usable identity")
	}

	u, err := a.resolve(ctx, p.Name, prof)
	if err != nil {
		return model.Identity{}, model.User{}, err
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

func (a *OAuthAdapter) resolve(ctx context.Context, provider string, prof profile) (model.User, error) {
	u, err := a.users.GetByProviderSubject(ctx, provider, prof.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return model.User{}, err
	}

	if existing, err := a.users.GetByEmail(ctx, prof.Email); err == nil {
		return model.User{}, emailTaken(existing)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return model.User{}, err
	}

	subject := prof.Subject
	name := prof.Name
	if name == "" {
		name = prof.Email
	}
	u = model.User{
		Name:            name,
		Email:           prof.Email,
		Role:            model.RoleTenant,
		Provider:        provider,
		ProviderSubject: &subject,
		IsActive:        true,
		EmailVerified:   prof.EmailVerified,
	}
	if err := a.users.Create(ctx, &u); err != nil {
		switch {
		case errors.Is(err, repository.ErrSubjectExists):
			// A concurrent first sign-in for the same subject inserted first.
			return a.users.GetByProviderSubject(ctx, provider, prof.Subject)
		case errors.Is(err, repository.ErrEmailExists):
			existing, getErr := a.users.GetByEmail(ctx, prof.Email)
			if getErr != nil {
				return model.User{}, err
			}
			return model.User{}, emailTaken(existing)
		}
		return model.User{}, err
	}
	return u, nil
}

// emailTaken explains why a provider sign-in cannot use an email that
// already has an account. Accounts are never linked implicitly.
func emailTaken(existing model.User) error {
	if existing.Provider == model.ProviderCredentials {
		return apperrors.Conflict("email is registered with a password; sign in with email and password")
	}
	return apperrors.Conflict("email is already linked to " + existing.Provider + " sign-in")
}

func fetchProfile(ctx context.Context, p *Provider, client *http.Client) (profile, error) {
	if p.Name == "github" {
		return fetchGitHubProfile(ctx, p, client)
	}
	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := getJSON(ctx, client, p.UserInfoURL, &body); err != nil {
		return profile{}, err
	}
	if !body.EmailVerified {
		body.Email = ""
	}
	return profile{Subject: body.Sub, Email: body.Email, Name: body.Name, EmailVerified: body.EmailVerified}, nil
}

func fetchGitHubProfile(ctx context.Context, p *Provider, client *http.Client) (profile, error) {
	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, client, p.UserInfoURL, &user); err != nil {
		return profile{}, err
	}
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, p.EmailsURL, &emails); err != nil {
		return profile{}, err
	}
	prof := profile{Name: user.Name}
	if user.ID != 0 {
		prof.Subject = strconv.FormatInt(user.ID, 10)
	}
	if prof.Name == "" {
		prof.Name = user.Login
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			prof.Email, prof.EmailVerified = e.Email, true
			break
		}
	}
	return prof, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
