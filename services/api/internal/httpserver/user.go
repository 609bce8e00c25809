package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	middleware "github.com/Skotchmaster/civic_mirror/pkg/middleware/auth"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/service"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.details")

	userID, _ := middleware.UserID(c)
	d, err := h.Svc.Details(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User details not found")
		}
		l.Error("user_details_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user details")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.create_details")

	var req transport.UserDetailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID, _ := middleware.UserID(c)
	d, err := h.Svc.CreateDetails(ctx, userID, req)
	if err != nil {
		if errors.Is(err, service.ErrDetailsExist) {
			return echo.NewHTTPError(http.StatusBadRequest, "User details already exist. Use PUT to update.")
		}
		l.Error("user_details_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save user details")
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_details")

	var req transport.UserDetailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID, _ := middleware.UserID(c)
	d, err := h.Svc.UpdateDetails(ctx, userID, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User details not found. Create details first.")
		}
		l.Error("user_details_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save user details")
	}
	return c.JSON(http.StatusOK, d)
}
