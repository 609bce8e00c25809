package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "github.com/Skotchmaster/civic_mirror/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/civic_mirror/pkg/middleware/logging"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	ReportHandler  *ReportHTTP
	CommentHandler *CommentHTTP
	UserHandler    *UserHTTP
	AdminHandler   *AdminHTTP
	JWTSecret      []byte
	Ready          func(ctx context.Context) error
}

// New returns an echo instance with the service's error format, validator
// and middleware chain installed.
func New(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = transport.NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewBearerMiddleware(d.JWTSecret)

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register, authMW.OptionalAuth)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, authMW.RequireAuth)

	reports := e.Group("/reports")
	reports.GET("", d.ReportHandler.List)
	reports.GET("/search", d.ReportHandler.Search)
	reports.GET("/:id", d.ReportHandler.Get)
	reports.GET("/me", d.ReportHandler.Mine, authMW.RequireAuth)
	reports.POST("", d.ReportHandler.Create, authMW.RequireAuth)
	reports.POST("/vote", d.ReportHandler.Vote, authMW.RequireAuth)

	comments := e.Group("/comments")
	comments.GET("/report/:id", d.CommentHandler.List)
	comments.POST("", d.CommentHandler.Create, authMW.RequireAuth)
	comments.DELETE("/:id", d.CommentHandler.Delete, authMW.RequireAuth)

	user := e.Group("/user", authMW.RequireAuth)
	user.GET("/details", d.UserHandler.Get)
	user.POST("/details", d.UserHandler.Create)
	user.PUT("/details", d.UserHandler.Update)

	admin := e.Group("/admin", authMW.RequireSuperuser)
	admin.GET("/reports", d.AdminHandler.List)
	admin.PATCH("/reports/:id/status", d.AdminHandler.UpdateStatus)
	admin.POST("/reports/:id/complete", d.AdminHandler.Complete)
}
