package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

// UpdateRobotTelemetryCommandHandler records location and battery reports.
type UpdateRobotTelemetryCommandHandler struct {
	registry ports.RobotRegistry
}

// NewUpdateRobotTelemetryCommandHandler creates the handler.
func NewUpdateRobotTelemetryCommandHandler(registry ports.RobotRegistry) UpdateRobotTelemetryCommandHandler {
	return UpdateRobotTelemetryCommandHandler{registry: registry}
}

// Handle writes location and battery unconditionally; neither touches the
// robot's assignment.
func (h UpdateRobotTelemetryCommandHandler) Handle(ctx context.Context, cmd UpdateRobotTelemetryCommand) (*robot.Robot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "update robot", kernel.RoleFleetAdmin); err != nil {
		return nil, err
	}

	if loc := cmd.Location(); loc != nil {
		if err := h.registry.UpdateLocation(ctx, cmd.RobotID(), *loc); err != nil {
			return nil, err
		}
	}
	if battery := cmd.Battery(); battery != nil {
		if err := h.registry.UpdateBattery(ctx, cmd.RobotID(), *battery); err != nil {
			return nil, err
		}
	}

	return h.registry.Get(ctx, cmd.RobotID())
}
