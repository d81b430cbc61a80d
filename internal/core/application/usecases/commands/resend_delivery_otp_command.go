package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
)

// ErrResendDeliveryOTPCommandIsNotConstructed is returned when the command did not come from NewResendDeliveryOTPCommand.
var ErrResendDeliveryOTPCommandIsNotConstructed = errors.New(
	"ResendDeliveryOTPCommand must be created via NewResendDeliveryOTPCommand constructor",
)

// ResendDeliveryOTPCommand replaces the outstanding delivery code of an order.
// The previous code stops working as soon as the new one is issued.
type ResendDeliveryOTPCommand struct {
	orderAction
}

// NewResendDeliveryOTPCommand creates a resend request for orderID.
func NewResendDeliveryOTPCommand(principal kernel.Principal, orderID kernel.UUID) (ResendDeliveryOTPCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return ResendDeliveryOTPCommand{}, err
	}
	return ResendDeliveryOTPCommand{orderAction: action}, nil
}

// Validate ensures the command was created through the constructor.
func (c ResendDeliveryOTPCommand) Validate() error {
	return c.guard.Validate(ErrResendDeliveryOTPCommandIsNotConstructed)
}
