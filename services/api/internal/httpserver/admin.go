package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	middleware "github.com/Skotchmaster/civic_mirror/pkg/middleware/auth"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/service"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/util"
)

type AdminHTTP struct {
	Svc   *service.AdminService
	Users *service.AuthService
}

// admin reloads the caller so that role changes apply without a new token.
func (h *AdminHTTP) admin(c echo.Context) (*models.User, error) {
	id, _ := middleware.UserID(c)
	user, err := h.Users.ActiveUser(c.Request().Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotFound):
		return nil, unauthorized(c, "Could not validate credentials")
	case errors.Is(err, service.ErrInactiveUser):
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Inactive user")
	default:
		return nil, err
	}
	if !user.IsSuperuser {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
	}
	return user, nil
}

func adminError(l *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Report not found")
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, service.ValidationMessage(err))
	}
	l.Error(op+"_error", "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "cannot update report")
}

func (h *AdminHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_reports")

	admin, err := h.admin(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.List(ctx, admin, listQueryDefault(c, util.AdminDefaultLimit))
	if err != nil {
		return adminError(l, "admin_list", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_status")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.StatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	admin, err := h.admin(c)
	if err != nil {
		return err
	}

	rep, err := h.Svc.UpdateStatus(ctx, admin, id, req.Status)
	if err != nil {
		return adminError(l, "update_status", err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *AdminHTTP) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.complete")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	admin, err := h.admin(c)
	if err != nil {
		return err
	}

	rep, err := h.Svc.Complete(ctx, admin, id)
	if err != nil {
		return adminError(l, "complete", err)
	}
	return c.JSON(http.StatusOK, rep)
}
