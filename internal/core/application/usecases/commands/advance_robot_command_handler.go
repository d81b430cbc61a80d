package commands

import (
	"context"
	"log/slog"
	"time"

	"robodelivery/internal/core/application/notify"
	appotp "robodelivery/internal/core/application/otp"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/ports"
)

// AdvanceRobotCommandHandler moves an order one leg forward and the robot after it.
//
// Business rules:
//   - the order transition, code issuance and order write commit together
//   - the registry step runs only after commit, so a failed write never leaves
//     the robot a leg ahead of its order
//   - entering the policy's trigger status issues the delivery code; the
//     plaintext is sent to the customer only after commit
type AdvanceRobotCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.RobotRegistry
	issuer     otpIssuer
	sender     ports.CodeSender
	policy     DeliveryCodePolicy
	emitter    Emitter
	logger     *slog.Logger
	now        func() time.Time
}

// NewAdvanceRobotCommandHandler creates the handler.
//
// Parameters:
//   - uowFactory: opens the order transaction
//   - registry: receives the robot step after commit
//   - issuer: issues the delivery code inside the transaction
//   - sender: delivers the plaintext code after commit
//   - policy: which status issues the code and for how long it is valid
//   - emitter: receives the order change after commit
//   - logger: base logger, tagged with component=advance_robot
func NewAdvanceRobotCommandHandler(
	uowFactory UoWFactory,
	registry ports.RobotRegistry,
	issuer otpIssuer,
	sender ports.CodeSender,
	policy DeliveryCodePolicy,
	emitter Emitter,
	logger *slog.Logger,
) AdvanceRobotCommandHandler {
	return AdvanceRobotCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		issuer:     issuer,
		sender:     sender,
		policy:     policy,
		emitter:    emitter,
		logger:     logger.With("component", "advance_robot"),
		now:        time.Now,
	}
}

// Handle advances the order to cmd.Next().
//
// Returns:
//   - the advanced order
//   - a TransitionError when the order is not one step before cmd.Next()
//   - a NotAuthorizedError for callers other than the owning vendor or a fleet admin
//   - the issuer's error when the delivery code cannot be issued; nothing is changed then
//
// Example:
//
//	cmd, _ := commands.NewAdvanceRobotCommand(vendor, orderID, order.RobotDelivering)
//	o, err := advance.Handle(ctx, cmd)
func (h AdvanceRobotCommandHandler) Handle(ctx context.Context, cmd AdvanceRobotCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "advance robot", kernel.RoleVendor, kernel.RoleFleetAdmin); err != nil {
		return nil, err
	}

	var issued *appotp.Issued

	advanced, events, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(),
		func(o *order.Order) error {
			return requireOwningVendorOrFleetAdmin(cmd.Principal(), o, "advance robot")
		},
		func(uow UoW, o *order.Order) error {
			issued = nil
			now := h.now()

			if err := o.Advance(cmd.Next(), now); err != nil {
				return err
			}

			if cmd.Next() != h.policy.Trigger {
				return nil
			}
			code, err := h.issuer.Issue(ctx, uow.OTPRepository(), o.ID().String(), otp.PurposeDeliveryConfirmation, h.policy.TTL)
			if err != nil {
				return err
			}
			if err = o.AwaitConfirmation(code.ExpiresAt, now); err != nil {
				return err
			}
			issued = &code
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	if robotID := advanced.Robot(); robotID != nil {
		advanceRobot(ctx, h.registry, h.logger, *robotID, advanced.ID(), cmd.RobotStatus())
	}
	if issued != nil {
		sendDeliveryCode(ctx, h.sender, h.logger, advanced, *issued)
	}
	h.emitter.Emit(ctx, notify.OrderChange{Order: advanced, Events: events})

	return advanced, nil
}
