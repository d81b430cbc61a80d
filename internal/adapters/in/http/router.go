package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouterConfig carries the dependencies of NewRouter.
type RouterConfig struct {
	Authenticator  Authenticator
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// NewRouter builds the echo instance with every route registered.
func NewRouter(s *Server, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = NewErrorHandler(cfg.Logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	if cfg.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.MetricsHandler))
	}

	api := e.Group("/api/v1", cfg.Authenticator.Middleware())

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/approve", s.ApproveOrder)
	api.POST("/orders/:id/reject", s.RejectOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/assign", s.AssignRobot)
	api.POST("/orders/:id/advance", s.AdvanceRobot)
	api.POST("/orders/:id/abort", s.AbortOrder)
	api.POST("/orders/:id/confirm", s.ConfirmDelivery)
	api.POST("/orders/:id/otp/resend", s.ResendDeliveryOTP)

	api.GET("/robots", s.ListRobots)
	api.POST("/robots", s.RegisterRobot)
	api.PUT("/robots/:id/availability", s.SetRobotAvailability)
	api.PUT("/robots/:id/telemetry", s.UpdateRobotTelemetry)

	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)

	api.GET("/ws", s.Live)

	return e
}
