package commands

import (
	"context"
	"log/slog"
	"time"

	"robodelivery/internal/core/application/notify"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/ports"
)

// AbortOrderCommandHandler lets a fleet admin stop an order at any
// non-terminal stage. The order becomes cancelled with the given reason and
// its robot, if any, is released.
//
// Example:
//
//	handler := NewAbortOrderCommandHandler(uowFactory, registry, dispatcher, logger)
//	cmd, _ := NewAbortOrderCommand(admin, orderID, "robot stuck at gate")
//	aborted, err := handler.Handle(ctx, cmd)
type AbortOrderCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.RobotRegistry
	emitter    Emitter
	logger     *slog.Logger
	now        func() time.Time
}

// NewAbortOrderCommandHandler creates the handler.
func NewAbortOrderCommandHandler(
	uowFactory UoWFactory,
	registry ports.RobotRegistry,
	emitter Emitter,
	logger *slog.Logger,
) AbortOrderCommandHandler {
	return AbortOrderCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		emitter:    emitter,
		logger:     logger.With("component", "abort_order"),
		now:        time.Now,
	}
}

// Handle cancels the order, voids any outstanding delivery code and, after
// commit, returns the robot to idle.
func (h AbortOrderCommandHandler) Handle(ctx context.Context, cmd AbortOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "abort order", kernel.RoleFleetAdmin); err != nil {
		return nil, err
	}

	var robotID kernel.UUID

	aborted, events, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(),
		func(*order.Order) error { return nil },
		func(uow UoW, o *order.Order) error {
			var err error
			robotID, err = o.Abort(cmd.Reason(), h.now())
			if err != nil {
				return err
			}
			return uow.OTPRepository().InvalidateActive(ctx, o.ID().String(), otp.PurposeDeliveryConfirmation)
		},
	)
	if err != nil {
		return nil, err
	}

	releaseRobot(ctx, h.registry, h.logger, robotID, aborted.ID())
	h.logger.WarnContext(ctx, "order aborted",
		"order_id", aborted.ID().String(), "robot_id", robotID.String(), "reason", cmd.Reason())
	h.emitter.Emit(ctx, notify.OrderChange{Order: aborted, Events: events})

	return aborted, nil
}
