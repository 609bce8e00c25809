package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	middleware "github.com/Skotchmaster/civic_mirror/pkg/middleware/auth"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/service"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/util"
)

type ReportHTTP struct {
	Svc *service.ReportService
}

func listQuery(c echo.Context) transport.ListReportsQuery {
	return listQueryDefault(c, util.DefaultLimit)
}

// listQueryDefault reads skip, limit and status, using def when limit is absent.
func listQueryDefault(c echo.Context, def int) transport.ListReportsQuery {
	skip, limit := util.Window(
		util.ParseIntDefault(c.QueryParam("skip"), 0),
		util.ParseIntDefault(c.QueryParam("limit"), def),
	)
	return transport.ListReportsQuery{Skip: skip, Limit: limit, Status: c.QueryParam("status")}
}

func (h *ReportHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.list")

	items, err := h.Svc.List(ctx, listQuery(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, service.ValidationMessage(err))
		}
		l.Error("list_reports_error", "status", 500, "reason", "cannot list reports", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list reports")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ReportHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.mine")

	userID, _ := middleware.UserID(c)
	items, err := h.Svc.Mine(ctx, userID, listQuery(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, service.ValidationMessage(err))
		}
		l.Error("list_reports_error", "status", 500, "reason", "cannot list reports", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list reports")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ReportHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.get")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	rep, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_report_error", "status", 404, "reason", "no such report", "report_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "Report not found")
		}
		l.Error("get_report_error", "status", 500, "reason", "cannot get report", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get report")
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *ReportHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.create")

	var req transport.CreateReportRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("create_report_error", "status", 422, "reason", "invalid body", "error", err)
		return err
	}

	userID, _ := middleware.UserID(c)
	rep, err := h.Svc.Create(ctx, userID, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_report_error", "status", 400, "reason", "invalid report", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, service.ValidationMessage(err))
		}
		l.Error("create_report_error", "status", 500, "reason", "cannot add report to db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create report")
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *ReportHTTP) Vote(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.vote")

	var req transport.VoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID, _ := middleware.UserID(c)
	vote, err := h.Svc.Vote(ctx, userID, req.ReportID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Report not found")
		case errors.Is(err, service.ErrAlreadyVoted):
			return echo.NewHTTPError(http.StatusBadRequest, "You have already voted for this report")
		}
		l.Error("vote_error", "status", 500, "reason", "cannot save vote", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save vote")
	}
	return c.JSON(http.StatusOK, vote)
}

// Search answers with the matching page and the overall hit count in
// X-Total-Count.
func (h *ReportHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.search")

	q := listQuery(c)
	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), q.Skip, q.Limit)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return &transport.ValidationError{Msg: service.ValidationMessage(err)}
		}
		l.Error("search_error", "status", 500, "reason", "search failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, items)
}
