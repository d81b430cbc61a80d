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
	"robodelivery/internal/pkg/errs"
)

// ConfirmDeliveryCommandHandler completes a delivery when the customer presents
// the code. The code is consumed in the order's unit of work, so a failed write
// leaves it usable. Every verification failure surfaces as errs.ErrOTPInvalid
// and leaves the order in robot_delivering.
type ConfirmDeliveryCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.RobotRegistry
	verifier   otpIssuer
	emitter    Emitter
	logger     *slog.Logger
	now        func() time.Time
}

// NewConfirmDeliveryCommandHandler creates the handler. verifier checks codes against the order's active delivery code.
func NewConfirmDeliveryCommandHandler(
	uowFactory UoWFactory,
	registry ports.RobotRegistry,
	verifier otpIssuer,
	emitter Emitter,
	logger *slog.Logger,
) ConfirmDeliveryCommandHandler {
	return ConfirmDeliveryCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		verifier:   verifier,
		emitter:    emitter,
		logger:     logger.With("component", "confirm_delivery"),
		now:        time.Now,
	}
}

// Handle verifies the code, marks the order delivered and releases its robot.
//
// Example:
//
//	cmd, _ := NewConfirmDeliveryCommand(customer, orderID, "482913")
//	delivered, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrOTPInvalid) {
//		// ask the customer to try again
//	}
func (h ConfirmDeliveryCommandHandler) Handle(ctx context.Context, cmd ConfirmDeliveryCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "confirm delivery", kernel.RoleCustomer); err != nil {
		return nil, err
	}

	var robotID kernel.UUID

	delivered, events, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(),
		func(o *order.Order) error {
			return requireOwningCustomer(cmd.Principal(), o, "confirm delivery")
		},
		func(uow UoW, o *order.Order) error {
			if _, err := o.Status().Deliver(); err != nil {
				return err
			}

			ok, err := h.verifier.Verify(ctx, uow.OTPRepository(), o.ID().String(), otp.PurposeDeliveryConfirmation, cmd.Code())
			if err != nil {
				return err
			}
			if !ok {
				return errs.ErrOTPInvalid
			}

			robotID, err = o.Deliver(h.now())
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	releaseRobot(ctx, h.registry, h.logger, robotID, delivered.ID())
	h.logger.InfoContext(ctx, "order delivered",
		"order_id", delivered.ID().String(), "robot_id", robotID.String())
	h.emitter.Emit(ctx, notify.OrderChange{Order: delivered, Events: events})

	return delivered, nil
}
