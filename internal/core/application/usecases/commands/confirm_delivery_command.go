package commands

import (
	"errors"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
)

// ErrConfirmDeliveryCommandIsNotConstructed is returned when the command did not come from NewConfirmDeliveryCommand.
var ErrConfirmDeliveryCommandIsNotConstructed = errors.New(
	"ConfirmDeliveryCommand must be created via NewConfirmDeliveryCommand constructor",
)

// ConfirmDeliveryCommand is the customer handing the delivery code back to the robot.
//
// Example:
//
//	cmd, err := NewConfirmDeliveryCommand(customer, orderID, "482913")
//	if err != nil {
//	    return err
//	}
//	delivered, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrOTPInvalid) {
//	    // wrong, expired or already used code
//	}
type ConfirmDeliveryCommand struct {
	orderAction
	code string
}

// NewConfirmDeliveryCommand only checks that a code was supplied. Its format
// is judged by the verifier so a malformed code fails like a wrong one.
func NewConfirmDeliveryCommand(principal kernel.Principal, orderID kernel.UUID, code string) (ConfirmDeliveryCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return ConfirmDeliveryCommand{}, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return ConfirmDeliveryCommand{}, errs.NewValueIsRequiredError("code")
	}

	return ConfirmDeliveryCommand{orderAction: action, code: code}, nil
}

// Validate ensures the command was created through the constructor.
func (c ConfirmDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrConfirmDeliveryCommandIsNotConstructed)
}

// Code returns the candidate code as typed by the customer, trimmed.
func (c ConfirmDeliveryCommand) Code() string {
	return c.code
}
