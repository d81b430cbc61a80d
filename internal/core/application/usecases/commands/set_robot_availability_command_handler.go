package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

// SetRobotAvailabilityCommandHandler applies admin status changes to unassigned robots.
type SetRobotAvailabilityCommandHandler struct {
	registry ports.RobotRegistry
}

// NewSetRobotAvailabilityCommandHandler creates the handler.
func NewSetRobotAvailabilityCommandHandler(registry ports.RobotRegistry) SetRobotAvailabilityCommandHandler {
	return SetRobotAvailabilityCommandHandler{registry: registry}
}

// Handle changes the robot status and returns the updated robot. Robots on
// an order return errs.ErrConflict.
func (h SetRobotAvailabilityCommandHandler) Handle(ctx context.Context, cmd SetRobotAvailabilityCommand) (*robot.Robot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "set robot availability", kernel.RoleFleetAdmin); err != nil {
		return nil, err
	}

	if err := h.registry.SetAvailability(ctx, cmd.RobotID(), cmd.Status()); err != nil {
		return nil, err
	}
	return h.registry.Get(ctx, cmd.RobotID())
}
