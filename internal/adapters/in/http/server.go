// Package http is the inbound REST API. Every route authenticates the caller,
// builds a command or query from the request and renders the handler result.
// Error bodies carry the stable result code.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/application/usecases/queries"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Handler is the shape shared by every command and query handler.
type Handler[In, Out any] interface {
	Handle(ctx context.Context, in In) (Out, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

func (f HandlerFunc[In, Out]) Handle(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// Handlers are the use cases the API exposes, one per route.
type Handlers struct {
	CreateOrder       Handler[commands.CreateOrderCommand, *order.Order]
	ApproveOrder      Handler[commands.ApproveOrderCommand, *order.Order]
	RejectOrder       Handler[commands.RejectOrderCommand, *order.Order]
	CancelOrder       Handler[commands.CancelOrderCommand, *order.Order]
	AssignRobot       Handler[commands.AssignRobotCommand, *order.Order]
	AdvanceRobot      Handler[commands.AdvanceRobotCommand, *order.Order]
	AbortOrder        Handler[commands.AbortOrderCommand, *order.Order]
	ConfirmDelivery   Handler[commands.ConfirmDeliveryCommand, *order.Order]
	ResendDeliveryOTP Handler[commands.ResendDeliveryOTPCommand, *order.Order]

	RegisterRobot        Handler[commands.RegisterRobotCommand, *robot.Robot]
	SetRobotAvailability Handler[commands.SetRobotAvailabilityCommand, *robot.Robot]
	UpdateRobotTelemetry Handler[commands.UpdateRobotTelemetryCommand, *robot.Robot]
	MarkNotificationRead Handler[commands.MarkNotificationReadCommand, *notification.Notification]
	GetOrder             Handler[queries.GetOrderQuery, queries.OrderResponse]
	ListOrders           Handler[queries.ListOrdersQuery, []queries.OrderResponse]
	ListRobots           Handler[queries.ListRobotsQuery, []queries.RobotResponse]
	ListNotifications    Handler[queries.ListNotificationsQuery, []queries.NotificationResponse]
}

// LiveChannel streams notifications to an authenticated recipient.
type LiveChannel interface {
	Serve(w http.ResponseWriter, r *http.Request, recipientID string) error
}

// Server implements the REST endpoints on top of Handlers.
type Server struct {
	handlers Handlers
	live     LiveChannel
	logger   *slog.Logger
}

// NewServer creates the API. live may be nil, which disables /api/v1/ws.
func NewServer(handlers Handlers, live LiveChannel, logger *slog.Logger) *Server {
	return &Server{handlers: handlers, live: live, logger: logger.With("component", "http")}
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}

	var req CreateOrderRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}

	items, err := req.lineItems()
	if err != nil {
		return err
	}
	vendorAddress, err := req.VendorAddress.toDomain()
	if err != nil {
		return err
	}
	deliveryAddress, err := req.DeliveryAddress.toDomain()
	if err != nil {
		return err
	}

	cmd, err := commands.NewCreateOrderCommand(principal, kernel.NewUUID(), req.VendorID, items, vendorAddress, deliveryAddress)
	if err != nil {
		return err
	}

	created, err := s.handlers.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, queries.NewOrderResponse(created))
}

// ListOrders handles GET /api/v1/orders?status=a,b&limit=n.
func (s *Server) ListOrders(c echo.Context) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}

	var statuses []order.Status
	if raw := c.QueryParam("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, parseErr := order.ParseStatus(strings.TrimSpace(part))
			if parseErr != nil {
				return parseErr
			}
			statuses = append(statuses, status)
		}
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}

	query, err := queries.NewListOrdersQuery(principal, statuses, limit)
	if err != nil {
		return err
	}
	orders, err := s.handlers.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(principal, orderID)
	if err != nil {
		return err
	}
	o, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// ApproveOrder handles POST /api/v1/orders/:id/approve.
func (s *Server) ApproveOrder(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewApproveOrderCommand(principal, orderID)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.ApproveOrder, cmd)
}

// RejectOrder handles POST /api/v1/orders/:id/reject.
func (s *Server) RejectOrder(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err = bindOptional(c, &req); err != nil {
		return err
	}
	cmd, err := commands.NewRejectOrderCommand(principal, orderID, req.Reason)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.RejectOrder, cmd)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewCancelOrderCommand(principal, orderID)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.CancelOrder, cmd)
}

// AssignRobot handles POST /api/v1/orders/:id/assign.
func (s *Server) AssignRobot(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewAssignRobotCommand(principal, orderID)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.AssignRobot, cmd)
}

// AdvanceRobot handles POST /api/v1/orders/:id/advance.
func (s *Server) AdvanceRobot(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	var req AdvanceRobotRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}
	next, err := order.ParseStatus(req.NextStatus)
	if err != nil {
		return err
	}
	cmd, err := commands.NewAdvanceRobotCommand(principal, orderID, next)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.AdvanceRobot, cmd)
}

// AbortOrder handles POST /api/v1/orders/:id/abort.
func (s *Server) AbortOrder(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err = bindOptional(c, &req); err != nil {
		return err
	}
	cmd, err := commands.NewAbortOrderCommand(principal, orderID, req.Reason)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.AbortOrder, cmd)
}

// ConfirmDelivery handles POST /api/v1/orders/:id/confirm.
func (s *Server) ConfirmDelivery(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	var req ConfirmDeliveryRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}
	cmd, err := commands.NewConfirmDeliveryCommand(principal, orderID, req.Code)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.ConfirmDelivery, cmd)
}

// ResendDeliveryOTP handles POST /api/v1/orders/:id/otp/resend.
func (s *Server) ResendDeliveryOTP(c echo.Context) error {
	principal, orderID, err := target(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewResendDeliveryOTPCommand(principal, orderID)
	if err != nil {
		return err
	}
	return renderOrder(c, s.handlers.ResendDeliveryOTP, cmd)
}

// ListRobots handles GET /api/v1/robots.
func (s *Server) ListRobots(c echo.Context) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	query, err := queries.NewListRobotsQuery(principal)
	if err != nil {
		return err
	}
	robots, err := s.handlers.ListRobots.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, robots)
}

// RegisterRobot handles POST /api/v1/robots.
func (s *Server) RegisterRobot(c echo.Context) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var req RegisterRobotRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}

	robotID := kernel.NewUUID()
	if req.ID != "" {
		if robotID, err = kernel.UUIDFromString(req.ID); err != nil {
			return err
		}
	}
	location, err := req.Location.toDomain()
	if err != nil {
		return err
	}

	capacity, err := kernel.NewPayload(req.CapacityKg, req.CapacityL)
	if err != nil {
		return err
	}

	cmd, err := commands.NewRegisterRobotCommand(principal, robotID, req.Name, location, req.Battery, capacity, req.SpeedKmh)
	if err != nil {
		return err
	}
	registered, err := s.handlers.RegisterRobot.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, queries.NewRobotResponse(registered))
}

// SetRobotAvailability handles PUT /api/v1/robots/:id/availability.
func (s *Server) SetRobotAvailability(c echo.Context) error {
	principal, robotID, err := target(c)
	if err != nil {
		return err
	}
	var req RobotAvailabilityRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}
	status, err := robot.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	cmd, err := commands.NewSetRobotAvailabilityCommand(principal, robotID, status)
	if err != nil {
		return err
	}
	return renderRobot(c, s.handlers.SetRobotAvailability, cmd)
}

// UpdateRobotTelemetry handles PUT /api/v1/robots/:id/telemetry.
func (s *Server) UpdateRobotTelemetry(c echo.Context) error {
	principal, robotID, err := target(c)
	if err != nil {
		return err
	}
	var req RobotTelemetryRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}

	var location *kernel.Location
	if req.Location != nil {
		l, locErr := req.Location.toDomain()
		if locErr != nil {
			return locErr
		}
		location = &l
	}

	cmd, err := commands.NewUpdateRobotTelemetryCommand(principal, robotID, location, req.Battery)
	if err != nil {
		return err
	}
	return renderRobot(c, s.handlers.UpdateRobotTelemetry, cmd)
}

// ListNotifications handles GET /api/v1/notifications?unread_only=true&limit=n.
func (s *Server) ListNotifications(c echo.Context) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	unreadOnly := false
	if raw := c.QueryParam("unread_only"); raw != "" {
		if unreadOnly, err = strconv.ParseBool(raw); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("unread_only", err)
		}
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}

	query, err := queries.NewListNotificationsQuery(principal, unreadOnly, limit)
	if err != nil {
		return err
	}
	notifications, err := s.handlers.ListNotifications.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read.
func (s *Server) MarkNotificationRead(c echo.Context) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	cmd, err := commands.NewMarkNotificationReadCommand(principal, id)
	if err != nil {
		return err
	}
	n, err := s.handlers.MarkNotificationRead.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, queries.NewNotificationResponse(n))
}

// Live handles GET /api/v1/ws.
func (s *Server) Live(c echo.Context) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	if s.live == nil {
		return echo.NewHTTPError(http.StatusNotFound, "live channel is disabled")
	}
	if err = s.live.Serve(c.Response(), c.Request(), principal.ID); err != nil {
		s.logger.WarnContext(c.Request().Context(), "websocket upgrade failed", "recipient_id", principal.ID, "error", err)
	}
	return nil
}

func renderOrder[C any](c echo.Context, h Handler[C, *order.Order], cmd C) error {
	o, err := h.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, queries.NewOrderResponse(o))
}

func renderRobot[C any](c echo.Context, h Handler[C, *robot.Robot], cmd C) error {
	r, err := h.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, queries.NewRobotResponse(r))
}

func principalOf(c echo.Context) (kernel.Principal, error) {
	p, ok := PrincipalFrom(c)
	if !ok {
		return kernel.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, errMissingToken.Error())
	}
	return p, nil
}

// target returns the caller and the :id path parameter.
func target(c echo.Context) (kernel.Principal, kernel.UUID, error) {
	principal, err := principalOf(c)
	if err != nil {
		return kernel.Principal{}, kernel.UUID{}, err
	}
	id, err := pathUUID(c, "id")
	return principal, id, err
}

func pathUUID(c echo.Context, name string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(c.Param(name))
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return v, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return c.Validate(req)
}

// bindOptional accepts an empty body.
func bindOptional(c echo.Context, req any) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	return bindAndValidate(c, req)
}
