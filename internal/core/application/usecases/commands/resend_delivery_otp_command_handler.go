package commands

import (
	"context"
	"log/slog"
	"time"

	appotp "robodelivery/internal/core/application/otp"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// ResendDeliveryOTPCommandHandler replaces the outstanding delivery code with a
// fresh one. The previous code stops verifying in the same unit of work.
type ResendDeliveryOTPCommandHandler struct {
	uowFactory UoWFactory
	issuer     otpIssuer
	sender     ports.CodeSender
	policy     DeliveryCodePolicy
	logger     *slog.Logger
	now        func() time.Time
}

// NewResendDeliveryOTPCommandHandler creates the handler. policy supplies the
// TTL of reissued codes.
func NewResendDeliveryOTPCommandHandler(
	uowFactory UoWFactory,
	issuer otpIssuer,
	sender ports.CodeSender,
	policy DeliveryCodePolicy,
	logger *slog.Logger,
) ResendDeliveryOTPCommandHandler {
	return ResendDeliveryOTPCommandHandler{
		uowFactory: uowFactory,
		issuer:     issuer,
		sender:     sender,
		policy:     policy,
		logger:     logger.With("component", "resend_delivery_otp"),
		now:        time.Now,
	}
}

// Handle issues a new code for an order in robot_delivering and sends it to
// the customer. Other statuses return errs.ErrInvalidTransition.
func (h ResendDeliveryOTPCommandHandler) Handle(ctx context.Context, cmd ResendDeliveryOTPCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "resend delivery code", kernel.RoleCustomer); err != nil {
		return nil, err
	}

	var issued appotp.Issued

	updated, _, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(),
		func(o *order.Order) error {
			return requireOwningCustomer(cmd.Principal(), o, "resend delivery code")
		},
		func(uow UoW, o *order.Order) error {
			if !o.IsAwaitingConfirmation() {
				return errs.NewTransitionError("order", "resend delivery code for", o.Status())
			}

			code, err := h.issuer.Issue(ctx, uow.OTPRepository(), o.ID().String(), otp.PurposeDeliveryConfirmation, h.policy.TTL)
			if err != nil {
				return err
			}
			issued = code
			return o.AwaitConfirmation(code.ExpiresAt, h.now())
		},
	)
	if err != nil {
		return nil, err
	}

	sendDeliveryCode(ctx, h.sender, h.logger, updated, issued)
	return updated, nil
}
