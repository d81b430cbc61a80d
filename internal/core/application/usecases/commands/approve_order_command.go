package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
)

// ErrApproveOrderCommandIsNotConstructed is returned when the command did not come from NewApproveOrderCommand.
var ErrApproveOrderCommandIsNotConstructed = errors.New(
	"ApproveOrderCommand must be created via NewApproveOrderCommand constructor",
)

// ApproveOrderCommand is the vendor accepting a pending order.
//
// Example:
//
//	cmd, _ := NewApproveOrderCommand(vendor, orderID)
//	approved, err := handler.Handle(ctx, cmd)
//	// approved is robot_assigned when auto-assignment found a robot
type ApproveOrderCommand struct {
	orderAction
}

// NewApproveOrderCommand creates an approval for orderID on behalf of principal.
func NewApproveOrderCommand(principal kernel.Principal, orderID kernel.UUID) (ApproveOrderCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return ApproveOrderCommand{}, err
	}
	return ApproveOrderCommand{orderAction: action}, nil
}

// Validate ensures the command was created through the constructor.
func (c ApproveOrderCommand) Validate() error {
	return c.guard.Validate(ErrApproveOrderCommandIsNotConstructed)
}
