package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	middleware "github.com/Skotchmaster/civic_mirror/pkg/middleware/auth"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/service"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}

func tokenResponse(res *service.LoginResult) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    res.TokenType,
		ExpiresIn:    int64(time.Until(res.AccessExp).Seconds()),
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("register_error", "status", 422, "reason", "invalid body", "error", err)
		return err
	}

	user, err := h.Svc.Register(ctx, req, middleware.Superuser(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "A user with this email already exists.")
		case errors.Is(err, service.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "A user with this username already exists.")
		case errors.Is(err, service.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, service.ValidationMessage(err))
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

// Login implements the OAuth2 password grant over a form body.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("login_error", "status", 422, "reason", "invalid form", "error", err)
		return err
	}
	if req.GrantType != "" && req.GrantType != "password" {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported_grant_type")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return unauthorized(c, "Incorrect username or password")
		case errors.Is(err, service.ErrInactiveUser):
			return echo.NewHTTPError(http.StatusBadRequest, "Inactive user")
		}
		l.Error("login_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue tokens")
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("refresh_error", "status", 422, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Refresh(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return unauthorized(c, "Could not validate credentials")
		case errors.Is(err, service.ErrInactiveUser):
			return echo.NewHTTPError(http.StatusBadRequest, "Inactive user")
		}
		l.Error("refresh_error", "status", 500, "reason", "cannot rotate tokens", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot rotate tokens")
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, tokenResponse(res))
}

// Logout revokes the given refresh token. Unknown tokens are not an error.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.LogoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.Logout(ctx, req.Token); err != nil {
		l.Error("logout_error", "status", 500, "reason", "cannot revoke token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke token")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, _ := middleware.UserID(c)
	user, err := h.Svc.ActiveUser(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrInactiveUser):
			return echo.NewHTTPError(http.StatusBadRequest, "Inactive user")
		}
		l.Error("me_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}
	return c.JSON(http.StatusOK, user)
}
