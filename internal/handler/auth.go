package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/service"
)

// SessionCookie names the cookie carrying a provider-managed session id.
const SessionCookie = "sid"

// AuthHandler serves sign-in, token refresh and the OAuth flow.
type AuthHandler struct {
	Auth *service.AuthService
	// SecureCookies marks the session cookie Secure; set outside dev.
	SecureCookies bool
	SessionTTL    time.Duration
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pair)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh rotates the presented refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout revokes one refresh token, or every token of the caller with
// {"all": true}.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req logoutReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, u, req.RefreshToken, req.All); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// OAuthStart redirects to the provider's consent page.
func (h *AuthHandler) OAuthStart(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	url, err := h.Auth.OAuthStart(ctx, c.Param("provider"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, url)
}

// OAuthCallback finishes the provider flow and sets the session cookie. The
// client then calls SessionToken to obtain a bearer token.
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	if reason := c.QueryParam("error"); reason != "" {
		return apperrors.Unauthenticated("provider sign-in failed: " + reason)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	sid, u, err := h.Auth.OAuthCallback(ctx, c.Param("provider"), c.QueryParam("state"), c.QueryParam("code"))
	if err != nil {
		return err
	}
	c.SetCookie(h.cookie(sid, int(h.SessionTTL/time.Second)))
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// SessionToken trades the session cookie for a bearer token.
func (h *AuthHandler) SessionToken(c echo.Context) error {
	ck, err := c.Cookie(SessionCookie)
	if err != nil || ck.Value == "" {
		return apperrors.Unauthenticated("missing session cookie")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.SessionToken(ctx, ck.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// EndSession deletes the provider session and clears the cookie.
func (h *AuthHandler) EndSession(c echo.Context) error {
	if ck, err := c.Cookie(SessionCookie); err == nil {
		ctx, cancel := requestContext(c)
		defer cancel()
		if err := h.Auth.EndSession(ctx, ck.Value); err != nil {
			return apperrors.Internal(err)
		}
	}
	c.SetCookie(h.cookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/v1/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
