package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	middleware "github.com/Skotchmaster/civic_mirror/pkg/middleware/auth"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/service"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/util"
)

type CommentHTTP struct {
	Svc *service.CommentService
}

func (h *CommentHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.create")

	var req transport.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID, _ := middleware.UserID(c)
	comment, err := h.Svc.Create(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Report not found")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, service.ValidationMessage(err))
		}
		l.Error("create_comment_error", "status", 500, "reason", "cannot save comment", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save comment")
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.list")

	reportID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	skip, limit := util.Window(
		util.ParseIntDefault(c.QueryParam("skip"), 0),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
	)

	items, err := h.Svc.List(ctx, reportID, skip, limit)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Report not found")
		}
		l.Error("list_comments_error", "status", 500, "reason", "cannot list comments", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list comments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CommentHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.delete")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	userID, _ := middleware.UserID(c)
	if err := h.Svc.Delete(ctx, userID, middleware.Superuser(c), id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		case errors.Is(err, service.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
		}
		l.Error("delete_comment_error", "status", 500, "reason", "cannot delete comment", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete comment")
	}
	return c.NoContent(http.StatusNoContent)
}
