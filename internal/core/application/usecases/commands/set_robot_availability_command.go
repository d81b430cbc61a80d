package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/guard"
)

// ErrSetRobotAvailabilityCommandIsNotConstructed is returned when the command did not come from NewSetRobotAvailabilityCommand.
var ErrSetRobotAvailabilityCommandIsNotConstructed = errors.New(
	"SetRobotAvailabilityCommand must be created via NewSetRobotAvailabilityCommand constructor",
)

// SetRobotAvailabilityCommand takes an unassigned robot in or out of service.
//
// Example:
//
//	cmd, _ := NewSetRobotAvailabilityCommand(admin, robotID, robot.Maintenance)
//	err := handler.Handle(ctx, cmd)
type SetRobotAvailabilityCommand struct {
	principal kernel.Principal
	robotID   kernel.UUID
	status    robot.Status

	guard guard.ConstructorGuard
}

// NewSetRobotAvailabilityCommand creates the command. The aggregate decides which statuses are allowed.
func NewSetRobotAvailabilityCommand(principal kernel.Principal, robotID kernel.UUID, status robot.Status) (SetRobotAvailabilityCommand, error) {
	if err := errors.Join(robotID.Validate(), status.Validate()); err != nil {
		return SetRobotAvailabilityCommand{}, err
	}

	return SetRobotAvailabilityCommand{
		principal: principal,
		robotID:   robotID,
		status:    status,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c SetRobotAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrSetRobotAvailabilityCommandIsNotConstructed)
}

// Field accessors.
func (c SetRobotAvailabilityCommand) Principal() kernel.Principal { return c.principal }
func (c SetRobotAvailabilityCommand) RobotID() kernel.UUID        { return c.robotID }
func (c SetRobotAvailabilityCommand) Status() robot.Status        { return c.status }
