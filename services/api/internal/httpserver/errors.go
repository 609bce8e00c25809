package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

// ErrorHandler writes every error as {"detail": "..."}. Validation
// failures answer 422.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var detail any = "Internal server error"

	var ve *transport.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		code = http.StatusUnprocessableEntity
		detail = ve.Msg
	case errors.As(err, &he):
		code = he.Code
		switch m := he.Message.(type) {
		case error:
			detail = m.Error()
		default:
			detail = m
		}
	default:
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]any{"detail": detail})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(req)
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &transport.ValidationError{Msg: name + " must be a positive integer"}
	}
	return uint(id), nil
}
