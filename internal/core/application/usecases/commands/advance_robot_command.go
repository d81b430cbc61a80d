package commands

import (
	"errors"
	"fmt"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
)

// ErrAdvanceRobotCommandIsNotConstructed is returned when the command did not come from NewAdvanceRobotCommand.
var ErrAdvanceRobotCommandIsNotConstructed = errors.New(
	"AdvanceRobotCommand must be created via NewAdvanceRobotCommand constructor",
)

// AdvanceRobotCommand moves a robot-carried order to its next leg:
// robot_picking_up once the robot is at the vendor, robot_delivering once it
// leaves with the goods.
type AdvanceRobotCommand struct {
	orderAction
	next order.Status
}

// NewAdvanceRobotCommand creates a leg change. next must be order.RobotPickingUp
// or order.RobotDelivering; any other status is a ValueIsInvalidError.
func NewAdvanceRobotCommand(principal kernel.Principal, orderID kernel.UUID, next order.Status) (AdvanceRobotCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return AdvanceRobotCommand{}, err
	}
	if next != order.RobotPickingUp && next != order.RobotDelivering {
		return AdvanceRobotCommand{}, errs.NewValueIsInvalidErrorWithCause("next",
			fmt.Errorf("%s is not a robot leg", next))
	}

	return AdvanceRobotCommand{orderAction: action, next: next}, nil
}

// Validate ensures the command was created through the constructor.
func (c AdvanceRobotCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceRobotCommandIsNotConstructed)
}

// Next returns the order status to move to.
func (c AdvanceRobotCommand) Next() order.Status {
	return c.next
}

// RobotStatus is the robot status that matches Next.
func (c AdvanceRobotCommand) RobotStatus() robot.Status {
	if c.next == order.RobotPickingUp {
		return robot.PickingUp
	}
	return robot.Delivering
}
