package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
)

// ErrAssignRobotCommandIsNotConstructed is returned when the command did not come from NewAssignRobotCommand.
var ErrAssignRobotCommandIsNotConstructed = errors.New(
	"AssignRobotCommand must be created via NewAssignRobotCommand constructor",
)

// AssignRobotCommand claims the nearest eligible robot for an approved order.
//
// Example:
//
//	cmd, _ := NewAssignRobotCommand(kernel.SystemPrincipal, orderID)
//	assigned, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrNoRobotAvailable):
//	    // order stays vendor_approved; the assignment job retries
//	case err != nil:
//	    return err
//	}
type AssignRobotCommand struct {
	orderAction
}

// NewAssignRobotCommand creates an assignment request for orderID.
func NewAssignRobotCommand(principal kernel.Principal, orderID kernel.UUID) (AssignRobotCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return AssignRobotCommand{}, err
	}
	return AssignRobotCommand{orderAction: action}, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignRobotCommand) Validate() error {
	return c.guard.Validate(ErrAssignRobotCommandIsNotConstructed)
}
