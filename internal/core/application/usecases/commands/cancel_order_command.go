package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
)

// ErrCancelOrderCommandIsNotConstructed is returned when the command did not come from NewCancelOrderCommand.
var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand is the customer's cancellation. It is only accepted before
// a robot has been claimed.
type CancelOrderCommand struct {
	orderAction
}

// NewCancelOrderCommand creates a cancellation for orderID.
//
// Example:
//
//	cmd, _ := NewCancelOrderCommand(customer, orderID)
//	cancelled, err := handler.Handle(ctx, cmd)
func NewCancelOrderCommand(principal kernel.Principal, orderID kernel.UUID) (CancelOrderCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return CancelOrderCommand{}, err
	}
	return CancelOrderCommand{orderAction: action}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}
